package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivankosh/photoflow/internal/repository"
)

func newSessionFixture(t *testing.T) (*SessionManager, *Codec, *repository.MemoryUserStore) {
	t.Helper()
	codec := NewCodec("session-test-secret", 24, 7)
	users := repository.NewMemoryUserStore()
	return NewSessionManager(codec, users, 10), codec, users
}

func TestRegisterAndLogin(t *testing.T) {
	m, codec, _ := newSessionFixture(t)
	ctx := context.Background()

	u, pair, err := m.Register(ctx, "alice", "Secret123!", "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, u.SubjectID)
	assert.False(t, u.EmailVerified)

	// The returned access token verifies and carries the same subject.
	claims, err := codec.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.SubjectID, claims.Subject)
	assert.Equal(t, KindAccess, claims.Kind)

	lu, lpair, err := m.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)
	assert.Equal(t, u.SubjectID, lu.SubjectID)

	claims, err = codec.Verify(lpair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.SubjectID, claims.Subject)
}

func TestRegisterShortPassword(t *testing.T) {
	m, _, _ := newSessionFixture(t)

	_, _, err := m.Register(context.Background(), "alice", "short", "")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	m, _, _ := newSessionFixture(t)
	ctx := context.Background()

	_, _, err := m.Register(ctx, "alice", "Secret123!", "")
	require.NoError(t, err)

	_, _, err = m.Register(ctx, "alice", "Other456!", "")
	assert.ErrorIs(t, err, repository.ErrUsernameExists)
}

func TestLoginInvalidCredentials(t *testing.T) {
	m, _, _ := newSessionFixture(t)
	ctx := context.Background()

	_, _, err := m.Register(ctx, "alice", "Secret123!", "")
	require.NoError(t, err)

	// Wrong password and unknown user are the same answer.
	_, _, err = m.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = m.Login(ctx, "nobody", "Secret123!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// Register alice, login, rotate the refresh token, then attempt to
// redeem the old token again: the second redemption must fail.
func TestRefreshRotation(t *testing.T) {
	m, codec, _ := newSessionFixture(t)
	ctx := context.Background()

	u, _, err := m.Register(ctx, "alice", "Secret123!", "")
	require.NoError(t, err)

	_, pair, err := m.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)

	_, next, err := m.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	claims, err := codec.Verify(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.SubjectID, claims.Subject)

	// The old token was rotated away.
	_, _, err = m.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrNotRecognized)

	// The replacement still works exactly once more.
	_, _, err = m.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)
}

// Two devices log in back to back; rotating one session's refresh token
// must leave the other session intact.
func TestConcurrentSessionsIndependent(t *testing.T) {
	m, _, _ := newSessionFixture(t)
	ctx := context.Background()

	_, _, err := m.Register(ctx, "alice", "Secret123!", "")
	require.NoError(t, err)

	_, deviceA, err := m.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)
	_, deviceB, err := m.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)
	require.NotEqual(t, deviceA.RefreshToken, deviceB.RefreshToken)

	_, _, err = m.Refresh(ctx, deviceA.RefreshToken)
	require.NoError(t, err)

	// Device B's session survived device A's rotation.
	_, _, err = m.Refresh(ctx, deviceB.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	m, _, _ := newSessionFixture(t)
	ctx := context.Background()

	_, pair, err := m.Register(ctx, "alice", "Secret123!", "")
	require.NoError(t, err)

	_, _, err = m.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshExpiredToken(t *testing.T) {
	codec := NewCodec("session-test-secret", 24, -1)
	users := repository.NewMemoryUserStore()
	m := NewSessionManager(codec, users, 10)
	ctx := context.Background()

	_, pair, err := m.Register(ctx, "alice", "Secret123!", "")
	require.NoError(t, err)

	_, _, err = m.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestLogoutRevokesRefreshButNotAccess(t *testing.T) {
	m, codec, _ := newSessionFixture(t)
	ctx := context.Background()

	u, pair, err := m.Register(ctx, "alice", "Secret123!", "")
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx, u.SubjectID))

	// Every prior refresh token is gone.
	_, _, err = m.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrNotRecognized)

	// The unexpired access token still verifies; statelessness is the
	// accepted trade-off.
	a := NewAuthenticator(codec, nil)
	p, err := a.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.SubjectID, p.Subject)
}
