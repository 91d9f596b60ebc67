package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ivankosh/photoflow/internal/model"
)

// MySQLUserStore persists users in the `users` table and their refresh
// token sets in the `refresh_tokens` table (one row per valid hash).
type MySQLUserStore struct{ DB *sql.DB }

func NewMySQLUserStore(db *sql.DB) *MySQLUserStore { return &MySQLUserStore{DB: db} }

var _ UserStore = (*MySQLUserStore)(nil)

// CreateUser inserts a user row. The UNIQUE index on username makes the
// create conditional; duplicate key errors map to ErrUsernameExists.
func (r *MySQLUserStore) CreateUser(ctx context.Context, u model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (subject_id, username, password_hash, email, email_verified, email_verification_token) VALUES (?,?,?,?,?,?)",
		u.SubjectID, u.Username,
		nullable(u.PasswordHash), nullable(u.Email),
		u.EmailVerified, nullable(u.EmailVerificationToken))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrUsernameExists
		}
		return err
	}
	return nil
}

// GetByUsername fetches a user by exact username. The username column
// uses a case-sensitive collation, so lookups are not normalized here.
func (r *MySQLUserStore) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getWhere(ctx, "username=?", username)
}

// GetBySubject fetches a user by subject id.
func (r *MySQLUserStore) GetBySubject(ctx context.Context, subject string) (model.User, error) {
	return r.getWhere(ctx, "subject_id=?", subject)
}

func (r *MySQLUserStore) getWhere(ctx context.Context, where string, arg any) (model.User, error) {
	var (
		u            model.User
		passwordHash sql.NullString
		email        sql.NullString
		verifyToken  sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT subject_id, username, password_hash, email, email_verified, email_verification_token, created_at FROM users WHERE "+where+" LIMIT 1",
		arg).Scan(&u.SubjectID, &u.Username, &passwordHash, &email, &u.EmailVerified, &verifyToken, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.PasswordHash = passwordHash.String
	u.Email = email.String
	u.EmailVerificationToken = verifyToken.String
	return u, nil
}

// AppendRefreshToken inserts a refresh token row. The insert also
// piggybacks a purge of the subject's expired rows so the set stays
// bounded without a background sweeper.
func (r *MySQLUserStore) AppendRefreshToken(ctx context.Context, t model.RefreshToken) error {
	if _, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE subject_id=? AND expires_at < UTC_TIMESTAMP()",
		t.SubjectID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (subject_id, token_hash, expires_at) VALUES (?,?,?)",
		t.SubjectID, t.TokenHash, t.ExpiresAt)
	return err
}

// RotateRefreshToken removes the old hash and inserts the new row in a
// single transaction. The conditional DELETE is what enforces at-most-once
// redemption: whichever concurrent rotation deletes the row proceeds, any
// other observes zero affected rows and gets ErrTokenNotFound.
func (r *MySQLUserStore) RotateRefreshToken(ctx context.Context, oldHash string, next model.RefreshToken) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE subject_id=? AND token_hash=?",
		next.SubjectID, oldHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenNotFound
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (subject_id, token_hash, expires_at) VALUES (?,?,?)",
		next.SubjectID, next.TokenHash, next.ExpiresAt); err != nil {
		return err
	}
	return tx.Commit()
}

// ClearRefreshTokens drops every token row for the subject (logout).
func (r *MySQLUserStore) ClearRefreshTokens(ctx context.Context, subject string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE subject_id=?", subject)
	return err
}

// SetEmailVerificationToken stores a pending token, replacing any prior one.
func (r *MySQLUserStore) SetEmailVerificationToken(ctx context.Context, subject, token string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email_verification_token=? WHERE subject_id=?",
		token, subject)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ConsumeEmailVerificationToken marks the matching user verified and
// clears the token. The UPDATE is conditioned on the token still being
// present, so a concurrent consumption of the same token succeeds at
// most once; the loser sees zero affected rows.
func (r *MySQLUserStore) ConsumeEmailVerificationToken(ctx context.Context, token string) (model.User, error) {
	u, err := r.getWhere(ctx, "email_verification_token=?", token)
	if err == ErrUserNotFound {
		return model.User{}, ErrVerificationNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email_verified=1, email_verification_token=NULL WHERE subject_id=? AND email_verification_token=?",
		u.SubjectID, token)
	if err != nil {
		return model.User{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.User{}, err
	}
	if n == 0 {
		// Lost the race to another consumption of the same token.
		return model.User{}, ErrVerificationNotFound
	}
	u.EmailVerified = true
	u.EmailVerificationToken = ""
	return u, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
