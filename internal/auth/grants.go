package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/ivankosh/photoflow/internal/model"
	"github.com/ivankosh/photoflow/internal/repository"
)

// GrantManager handles the two opaque-token flows: single-use email
// verification tokens stored on the user record, and time-boxed share
// grants for anonymous read-only access to one image variant.
type GrantManager struct {
	users  repository.UserStore
	shares repository.ShareStore
	now    func() time.Time
}

func NewGrantManager(users repository.UserStore, shares repository.ShareStore) *GrantManager {
	return &GrantManager{users: users, shares: shares, now: func() time.Time { return time.Now().UTC() }}
}

// IssueEmailVerification generates a fresh opaque token and stores it on
// the user record, replacing any prior outstanding token. The token has
// no expiry; resend is rate-limited at the HTTP layer instead and the
// token dies on first use.
func (g *GrantManager) IssueEmailVerification(ctx context.Context, subject string) (string, error) {
	token, err := randomHex(32)
	if err != nil {
		return "", err
	}
	if err := g.users.SetEmailVerificationToken(ctx, subject, token); err != nil {
		return "", err
	}
	return token, nil
}

// ConsumeEmailVerification redeems a verification token: the matching
// user's email is marked verified and the token cleared in one
// conditional store update. Never-issued and already-consumed tokens
// produce the same ErrGrantNotFound, so callers cannot tell them apart.
func (g *GrantManager) ConsumeEmailVerification(ctx context.Context, token string) (model.User, error) {
	u, err := g.users.ConsumeEmailVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrVerificationNotFound) {
			return model.User{}, ErrGrantNotFound
		}
		return model.User{}, err
	}
	return u, nil
}

// CreateShare binds a fresh opaque token to one image variant with an
// absolute expiry. ttlHours of zero produces a grant that is already
// past expiry and therefore never resolvable.
func (g *GrantManager) CreateShare(ctx context.Context, owner, resourceID, variant string, ttlHours int) (model.ShareGrant, error) {
	token, err := randomHex(24)
	if err != nil {
		return model.ShareGrant{}, err
	}
	grant := model.ShareGrant{
		Token:        token,
		ResourceID:   resourceID,
		Variant:      variant,
		OwnerSubject: owner,
		ExpiresAt:    g.now().Add(time.Duration(ttlHours) * time.Hour),
	}
	if err := g.shares.PutGrant(ctx, grant); err != nil {
		return model.ShareGrant{}, err
	}
	return grant, nil
}

// ResolveShare looks up a grant by token. Expired grants are evicted on
// sight and reported as ErrGrantExpired; unknown tokens as ErrGrantNotFound.
func (g *GrantManager) ResolveShare(ctx context.Context, token string) (model.ShareGrant, error) {
	grant, err := g.shares.GetGrant(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrShareNotFound) {
			return model.ShareGrant{}, ErrGrantNotFound
		}
		return model.ShareGrant{}, err
	}
	if grant.Expired(g.now()) {
		_ = g.shares.DeleteGrant(ctx, token)
		return model.ShareGrant{}, ErrGrantExpired
	}
	return grant, nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
