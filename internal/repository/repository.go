package repository

import (
	"context"

	"github.com/ivankosh/photoflow/internal/model"
)

// UserStore is the credential store contract. Both read-modify-write
// hazards of the auth flow — refresh rotation and verification token
// consumption — are owned by the store as single conditional updates,
// never by client-side locking.
type UserStore interface {
	// CreateUser inserts a new user record. Returns ErrUsernameExists
	// when the username is already taken (conditional create).
	CreateUser(ctx context.Context, u model.User) error

	// GetByUsername fetches a user by its exact, case-sensitive username.
	GetByUsername(ctx context.Context, username string) (model.User, error)

	// GetBySubject fetches a user by subject id.
	GetBySubject(ctx context.Context, subject string) (model.User, error)

	// AppendRefreshToken adds a token to the subject's set of valid
	// refresh tokens. Implementations may use the call to evict entries
	// already past their expiry.
	AppendRefreshToken(ctx context.Context, t model.RefreshToken) error

	// RotateRefreshToken atomically removes oldHash from the subject's
	// set and appends next. If oldHash is not present — revoked,
	// already rotated, or lost to a concurrent rotation — the set is
	// left untouched and ErrTokenNotFound is returned. At most one
	// concurrent caller presenting the same oldHash succeeds.
	RotateRefreshToken(ctx context.Context, oldHash string, next model.RefreshToken) error

	// ClearRefreshTokens removes every refresh token for the subject.
	ClearRefreshTokens(ctx context.Context, subject string) error

	// SetEmailVerificationToken stores a pending verification token on
	// the user record, replacing any prior one.
	SetEmailVerificationToken(ctx context.Context, subject, token string) error

	// ConsumeEmailVerificationToken finds the user whose pending token
	// matches, marks the email verified and clears the token, all in one
	// conditional update. Returns ErrVerificationNotFound whether the
	// token never existed or was already consumed.
	ConsumeEmailVerificationToken(ctx context.Context, token string) (model.User, error)
}

// ShareStore persists share grants keyed by their opaque token. The
// in-memory implementation mirrors the single-process scope of the
// original deployment; the Redis implementation shares grants across
// instances and survives restarts.
type ShareStore interface {
	PutGrant(ctx context.Context, g model.ShareGrant) error
	GetGrant(ctx context.Context, token string) (model.ShareGrant, error)
	DeleteGrant(ctx context.Context, token string) error
}
