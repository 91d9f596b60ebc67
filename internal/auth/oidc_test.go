package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://id.example.com"
	testAudience = "photoflow-client"
)

type oidcFixture struct {
	key      *rsa.PrivateKey
	server   *httptest.Server
	verifier *OIDCVerifier
	fetches  atomic.Int32
}

func newOIDCFixture(t *testing.T) *oidcFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &oidcFixture{key: key}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		f.fetches.Add(1)
		pub := &key.PublicKey
		resp := map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"use": "sig",
				"kid": "k1",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(f.server.Close)

	f.verifier = NewOIDCVerifier(testIssuer, testAudience, f.server.URL)
	return f
}

func (f *oidcFixture) signToken(t *testing.T, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	signed, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func providerClaims(exp time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            testIssuer,
		"aud":            testAudience,
		"sub":            "provider-sub",
		"username":       "carol",
		"email":          "carol@example.com",
		"email_verified": true,
		"iat":            time.Now().Unix(),
		"exp":            exp.Unix(),
	}
}

func TestOIDCVerifyOK(t *testing.T) {
	f := newOIDCFixture(t)
	token := f.signToken(t, "k1", providerClaims(time.Now().Add(time.Hour)))

	claims, status := f.verifier.Verify(context.Background(), token)
	require.Equal(t, ExternalOK, status)
	assert.Equal(t, "provider-sub", claims.Subject)
	assert.Equal(t, "carol", claims.Username)
	assert.Equal(t, "carol@example.com", claims.Email)
	assert.True(t, claims.EmailVerified)
	assert.Equal(t, int32(1), f.fetches.Load())
}

func TestOIDCKeyCacheReused(t *testing.T) {
	f := newOIDCFixture(t)
	token := f.signToken(t, "k1", providerClaims(time.Now().Add(time.Hour)))

	_, status := f.verifier.Verify(context.Background(), token)
	require.Equal(t, ExternalOK, status)
	_, status = f.verifier.Verify(context.Background(), token)
	require.Equal(t, ExternalOK, status)

	assert.Equal(t, int32(1), f.fetches.Load(), "second verification should hit the key cache")
}

func TestOIDCExpired(t *testing.T) {
	f := newOIDCFixture(t)
	token := f.signToken(t, "k1", providerClaims(time.Now().Add(-time.Hour)))

	_, status := f.verifier.Verify(context.Background(), token)
	assert.Equal(t, ExternalExpired, status)
}

func TestOIDCNotApplicableForeignIssuer(t *testing.T) {
	f := newOIDCFixture(t)
	claims := providerClaims(time.Now().Add(time.Hour))
	claims["iss"] = "https://other-idp.example.com"
	token := f.signToken(t, "k1", claims)

	_, status := f.verifier.Verify(context.Background(), token)
	assert.Equal(t, ExternalNotApplicable, status)
	assert.Equal(t, int32(0), f.fetches.Load(), "inapplicable tokens must not trigger a JWKS fetch")
}

func TestOIDCNotApplicableLocalToken(t *testing.T) {
	f := newOIDCFixture(t)
	codec := NewCodec("local-secret", 24, 7)
	token, _, err := codec.Issue("sub-1", "alice", KindAccess)
	require.NoError(t, err)

	_, status := f.verifier.Verify(context.Background(), token)
	assert.Equal(t, ExternalNotApplicable, status)
}

func TestOIDCNotApplicableGarbage(t *testing.T) {
	f := newOIDCFixture(t)

	_, status := f.verifier.Verify(context.Background(), "not-a-jwt")
	assert.Equal(t, ExternalNotApplicable, status)
}

func TestOIDCTamperedInvalid(t *testing.T) {
	f := newOIDCFixture(t)
	token := f.signToken(t, "k1", providerClaims(time.Now().Add(time.Hour)))

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

	_, status := f.verifier.Verify(context.Background(), tampered)
	assert.Equal(t, ExternalInvalid, status)
}

func TestOIDCWrongAudienceInvalid(t *testing.T) {
	f := newOIDCFixture(t)
	claims := providerClaims(time.Now().Add(time.Hour))
	claims["aud"] = "some-other-client"
	token := f.signToken(t, "k1", claims)

	_, status := f.verifier.Verify(context.Background(), token)
	assert.Equal(t, ExternalInvalid, status)
}

func TestOIDCUnknownKidInvalidAfterRefresh(t *testing.T) {
	f := newOIDCFixture(t)
	token := f.signToken(t, "k2", providerClaims(time.Now().Add(time.Hour)))

	_, status := f.verifier.Verify(context.Background(), token)
	assert.Equal(t, ExternalInvalid, status)
	assert.GreaterOrEqual(t, f.fetches.Load(), int32(1), "kid miss must force a JWKS refresh")
}
