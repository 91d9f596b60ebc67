package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ivankosh/photoflow/internal/model"
	"github.com/ivankosh/photoflow/internal/repository"
)

// MinPasswordLen is the only password policy the service enforces.
const MinPasswordLen = 8

// TokenPair is the result of login, register and refresh: a short-lived
// access token and a long-lived, rotating refresh token.
type TokenPair struct {
	AccessToken    string    `json:"accessToken"`
	AccessExpires  time.Time `json:"accessExpires"`
	RefreshToken   string    `json:"refreshToken"`
	RefreshExpires time.Time `json:"refreshExpires"`
}

// ErrPasswordTooShort rejects registrations below MinPasswordLen.
var ErrPasswordTooShort = errors.New("password too short")

// dummyHash keeps login latency flat for unknown usernames: the bcrypt
// compare runs either way.
var dummyHash, _ = HashPassword("photoflow-dummy-password", 10)

// SessionManager issues access/refresh pairs, rotates refresh tokens and
// revokes them on logout. Refresh token validity requires both a passing
// signature/expiry check and membership in the user's persisted set —
// membership is what makes refresh tokens revocable.
type SessionManager struct {
	codec      *Codec
	users      repository.UserStore
	bcryptCost int
}

func NewSessionManager(codec *Codec, users repository.UserStore, bcryptCost int) *SessionManager {
	return &SessionManager{codec: codec, users: users, bcryptCost: bcryptCost}
}

// Register creates the user (conditional on the username being free),
// issues a first token pair and returns the created record. Callers
// issue the email-verification token separately.
func (m *SessionManager) Register(ctx context.Context, username, password, email string) (model.User, TokenPair, error) {
	if len(password) < MinPasswordLen {
		return model.User{}, TokenPair{}, ErrPasswordTooShort
	}
	hash, err := HashPassword(password, m.bcryptCost)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	u := model.User{
		SubjectID:    uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		CreatedAt:    time.Now().UTC(),
	}
	if err := m.users.CreateUser(ctx, u); err != nil {
		return model.User{}, TokenPair{}, err
	}
	pair, err := m.issuePair(ctx, u.SubjectID, u.Username)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Login verifies the password and issues a fresh pair. Unknown username
// and wrong password are the same answer.
func (m *SessionManager) Login(ctx context.Context, username, password string) (model.User, TokenPair, error) {
	u, err := m.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			VerifyPassword(dummyHash, password)
			return model.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return model.User{}, TokenPair{}, err
	}
	if u.PasswordHash == "" || !VerifyPassword(u.PasswordHash, password) {
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := m.issuePair(ctx, u.SubjectID, u.Username)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh redeems a refresh token for a new pair. Redemption is
// at-most-once: the store's conditional remove-and-append decides the
// winner of any race, and the loser gets ErrNotRecognized. An expired
// refresh token reports ErrTokenExpired so clients know to re-login.
func (m *SessionManager) Refresh(ctx context.Context, raw string) (model.User, TokenPair, error) {
	claims, err := m.codec.Verify(raw)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	if claims.Kind != KindRefresh {
		return model.User{}, TokenPair{}, ErrTokenInvalid
	}
	u, err := m.users.GetBySubject(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.User{}, TokenPair{}, ErrNotRecognized
		}
		return model.User{}, TokenPair{}, err
	}

	newRefresh, refreshExp, err := m.codec.Issue(u.SubjectID, u.Username, KindRefresh)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	err = m.users.RotateRefreshToken(ctx, hashToken(raw), model.RefreshToken{
		SubjectID: u.SubjectID,
		TokenHash: hashToken(newRefresh),
		ExpiresAt: refreshExp,
	})
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return model.User{}, TokenPair{}, ErrNotRecognized
		}
		return model.User{}, TokenPair{}, err
	}

	access, accessExp, err := m.codec.Issue(u.SubjectID, u.Username, KindAccess)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, TokenPair{
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   newRefresh,
		RefreshExpires: refreshExp,
	}, nil
}

// Logout clears the subject's entire refresh token set. Already issued,
// unexpired access tokens stay valid until their TTL runs out.
func (m *SessionManager) Logout(ctx context.Context, subject string) error {
	return m.users.ClearRefreshTokens(ctx, subject)
}

// UserBySubject loads the account record for an authenticated principal.
func (m *SessionManager) UserBySubject(ctx context.Context, subject string) (model.User, error) {
	return m.users.GetBySubject(ctx, subject)
}

// IssuePair mints a pair for an already-authenticated subject, e.g.
// right after email verification.
func (m *SessionManager) IssuePair(ctx context.Context, subject, username string) (TokenPair, error) {
	return m.issuePair(ctx, subject, username)
}

func (m *SessionManager) issuePair(ctx context.Context, subject, username string) (TokenPair, error) {
	access, accessExp, err := m.codec.Issue(subject, username, KindAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := m.codec.Issue(subject, username, KindRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	if err := m.users.AppendRefreshToken(ctx, model.RefreshToken{
		SubjectID: subject,
		TokenHash: hashToken(refresh),
		ExpiresAt: refreshExp,
	}); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   refresh,
		RefreshExpires: refreshExp,
	}, nil
}

// hashToken returns the SHA-256 hex digest of a token. Only digests hit
// the store, so stolen database entries cannot redeem sessions.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
