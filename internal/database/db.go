package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Options describes the MySQL connection for the account and refresh
// token tables.
type Options struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

// Open connects to MySQL and verifies the connection before returning.
//
// The DSN is built through the driver's own config type so credentials
// with reserved characters survive intact. All DATETIME columns
// (created_at, expires_at) come back as UTC time.Time values; refresh
// token expiry comparisons depend on that.
func Open(opts Options) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(opts))
	if err != nil {
		return nil, err
	}

	// The workload is many short point queries (login lookups, refresh
	// rotations), so a modest pool with matching idle size avoids churn.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func dsn(opts Options) string {
	dc := mysql.NewConfig()
	dc.User = opts.User
	dc.Passwd = opts.Pass
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(opts.Host, opts.Port)
	dc.DBName = opts.Name
	dc.ParseTime = true
	dc.Loc = time.UTC
	dc.Params = map[string]string{"charset": "utf8mb4"}
	return dc.FormatDSN()
}
