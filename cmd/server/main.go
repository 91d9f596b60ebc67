package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/ivankosh/photoflow/internal/auth"
	"github.com/ivankosh/photoflow/internal/config"
	"github.com/ivankosh/photoflow/internal/database"
	"github.com/ivankosh/photoflow/internal/handler"
	"github.com/ivankosh/photoflow/internal/mailer"
	"github.com/ivankosh/photoflow/internal/queue"
	"github.com/ivankosh/photoflow/internal/repository"
	"github.com/ivankosh/photoflow/internal/router"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	users := repository.NewMySQLUserStore(db)

	// Redis backs the resend limiter and, optionally, the share store.
	// nil is a valid degraded state: limiter off, shares in memory.
	rdb := config.NewRedisClient()

	var shares repository.ShareStore = repository.NewMemoryShareStore()
	if cfg.ShareBackend == "redis" && rdb != nil {
		shares = repository.NewRedisShareStore(rdb)
	} else if cfg.ShareBackend == "redis" {
		log.Printf("share store: redis requested but unavailable, using memory")
	}

	codec := auth.NewCodec(cfg.JWTSecret, cfg.AccessTTLHours, cfg.RefreshTTLDays)

	// The external identity verifier is optional; without an issuer the
	// unified authenticator goes straight to the local codec.
	var external auth.ExternalVerifier
	if cfg.OIDCIssuer != "" {
		external = auth.NewOIDCVerifier(cfg.OIDCIssuer, cfg.OIDCAudience, cfg.OIDCJWKSURL)
	}
	authn := auth.NewAuthenticator(codec, external)

	sessions := auth.NewSessionManager(codec, users, cfg.BcryptCost)
	grants := auth.NewGrantManager(users, shares)

	// Verification mail consumer. The log sender is the development
	// delivery backend; swap in a real provider behind mailer.Sender.
	go func() {
		if err := queue.StartVerificationConsumer(mailer.LogSender{}, cfg.PublicBaseURL); err != nil {
			log.Printf("email-consumer: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(sessions, grants), authn,
		config.LoadRateLimitConfig(), rdb)
	router.RegisterShares(e, handler.NewShareHandler(grants), authn, users)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
