package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExternal struct {
	claims ExternalClaims
	status ExternalStatus
	calls  int
}

func (f *fakeExternal) Verify(_ context.Context, _ string) (ExternalClaims, ExternalStatus) {
	f.calls++
	return f.claims, f.status
}

func TestAuthenticateMissingToken(t *testing.T) {
	a := NewAuthenticator(NewCodec("s", 24, 7), nil)

	_, err := a.Authenticate(context.Background(), "")
	assert.Equal(t, CodeMissing, CodeOf(err))
}

func TestAuthenticateLocalOnly(t *testing.T) {
	c := NewCodec("s", 24, 7)
	a := NewAuthenticator(c, nil)

	token, _, err := c.Issue("sub-1", "alice", KindAccess)
	require.NoError(t, err)

	p, err := a.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", p.Subject)
	assert.Equal(t, "alice", p.Username)
}

func TestAuthenticateExternalWins(t *testing.T) {
	c := NewCodec("s", 24, 7)
	ext := &fakeExternal{
		claims: ExternalClaims{Subject: "ext-sub", Username: "bob", Email: "bob@example.com", EmailVerified: true},
		status: ExternalOK,
	}
	a := NewAuthenticator(c, ext)

	p, err := a.Authenticate(context.Background(), "provider-token")
	require.NoError(t, err)
	assert.Equal(t, "ext-sub", p.Subject)
	assert.Equal(t, "bob", p.Username)
	assert.True(t, p.EmailVerified)
	assert.Equal(t, 1, ext.calls)
}

// A locally issued token presented while the external verifier is
// configured must fall through silently and authenticate locally.
func TestAuthenticateFallsThroughOnNotApplicable(t *testing.T) {
	c := NewCodec("s", 24, 7)
	ext := &fakeExternal{status: ExternalNotApplicable}
	a := NewAuthenticator(c, ext)

	token, _, err := c.Issue("sub-1", "alice", KindAccess)
	require.NoError(t, err)

	p, err := a.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", p.Subject)
	assert.Equal(t, 1, ext.calls)
}

// External Invalid and Expired are swallowed too: a token that fails
// external verification might still be a valid local one.
func TestAuthenticateSwallowsExternalFailures(t *testing.T) {
	c := NewCodec("s", 24, 7)
	token, _, err := c.Issue("sub-1", "alice", KindAccess)
	require.NoError(t, err)

	for _, status := range []ExternalStatus{ExternalInvalid, ExternalExpired} {
		a := NewAuthenticator(c, &fakeExternal{status: status})
		p, err := a.Authenticate(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "sub-1", p.Subject)
	}
}

func TestAuthenticateExpiredLocal(t *testing.T) {
	c := NewCodec("s", -1, 7)
	a := NewAuthenticator(c, nil)

	token, _, err := c.Issue("sub-1", "alice", KindAccess)
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), token)
	assert.Equal(t, CodeExpired, CodeOf(err))
}

func TestAuthenticateRejectsRefreshAsBearer(t *testing.T) {
	c := NewCodec("s", 24, 7)
	a := NewAuthenticator(c, nil)

	token, _, err := c.Issue("sub-1", "alice", KindRefresh)
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), token)
	assert.Equal(t, CodeInvalid, CodeOf(err))
}

func TestAuthenticateGarbage(t *testing.T) {
	a := NewAuthenticator(NewCodec("s", 24, 7), nil)

	_, err := a.Authenticate(context.Background(), "not-a-token")
	assert.Equal(t, CodeInvalid, CodeOf(err))
}
