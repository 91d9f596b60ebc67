package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivankosh/photoflow/internal/model"
	"github.com/ivankosh/photoflow/internal/repository"
)

func newGrantFixture(t *testing.T) (*GrantManager, *repository.MemoryUserStore) {
	t.Helper()
	users := repository.NewMemoryUserStore()
	return NewGrantManager(users, repository.NewMemoryShareStore()), users
}

func seedUser(t *testing.T, users *repository.MemoryUserStore, subject, username string) {
	t.Helper()
	err := users.CreateUser(context.Background(), model.User{
		SubjectID: subject,
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestEmailVerificationSingleUse(t *testing.T) {
	g, users := newGrantFixture(t)
	ctx := context.Background()
	seedUser(t, users, "sub-1", "alice")

	token, err := g.IssueEmailVerification(ctx, "sub-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	u, err := g.ConsumeEmailVerification(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", u.SubjectID)
	assert.True(t, u.EmailVerified)
	assert.Empty(t, u.EmailVerificationToken)

	// Already consumed and never issued are indistinguishable.
	_, err = g.ConsumeEmailVerification(ctx, token)
	assert.ErrorIs(t, err, ErrGrantNotFound)

	_, err = g.ConsumeEmailVerification(ctx, "never-issued")
	assert.ErrorIs(t, err, ErrGrantNotFound)
}

func TestEmailVerificationReissueReplaces(t *testing.T) {
	g, users := newGrantFixture(t)
	ctx := context.Background()
	seedUser(t, users, "sub-1", "alice")

	first, err := g.IssueEmailVerification(ctx, "sub-1")
	require.NoError(t, err)
	second, err := g.IssueEmailVerification(ctx, "sub-1")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// Only the latest token is redeemable.
	_, err = g.ConsumeEmailVerification(ctx, first)
	assert.ErrorIs(t, err, ErrGrantNotFound)

	_, err = g.ConsumeEmailVerification(ctx, second)
	require.NoError(t, err)
}

func TestShareCreateAndResolve(t *testing.T) {
	g, _ := newGrantFixture(t)
	ctx := context.Background()

	grant, err := g.CreateShare(ctx, "sub-1", "photo-42", "sepia", 24)
	require.NoError(t, err)
	require.NotEmpty(t, grant.Token)

	got, err := g.ResolveShare(ctx, grant.Token)
	require.NoError(t, err)
	assert.Equal(t, "photo-42", got.ResourceID)
	assert.Equal(t, "sepia", got.Variant)
	assert.Equal(t, "sub-1", got.OwnerSubject)

	// Grants are not single-use: resolving again still works.
	_, err = g.ResolveShare(ctx, grant.Token)
	require.NoError(t, err)
}

func TestShareZeroTTLImmediatelyUnresolvable(t *testing.T) {
	g, _ := newGrantFixture(t)
	ctx := context.Background()

	grant, err := g.CreateShare(ctx, "sub-1", "photo-42", "original", 0)
	require.NoError(t, err)

	_, err = g.ResolveShare(ctx, grant.Token)
	assert.ErrorIs(t, err, ErrGrantExpired)

	// The expired entry was evicted; later lookups see not-found.
	_, err = g.ResolveShare(ctx, grant.Token)
	assert.ErrorIs(t, err, ErrGrantNotFound)
}

func TestShareUnknownToken(t *testing.T) {
	g, _ := newGrantFixture(t)

	_, err := g.ResolveShare(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrGrantNotFound)
}
