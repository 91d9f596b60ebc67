package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind discriminates the two locally issued token families. The
// kind travels inside the signed claims, so an access token can never
// be replayed as a refresh token or vice versa.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the payload of a locally issued token. Subject (sub) holds
// the stable subject id; Username rides along so request handling does
// not need a store lookup.
type Claims struct {
	jwt.RegisteredClaims
	Username string    `json:"uname"`
	Kind     TokenKind `json:"kind"`
}

// Codec signs and verifies compact stateless bearer tokens (HS256).
// Access tokens are short-lived and never checked against server state;
// refresh tokens are long-lived and additionally membership-checked by
// the session manager.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec builds a codec. TTLs are expressed the way configuration
// carries them: hours for access tokens, days for refresh tokens.
func NewCodec(secret string, accessTTLHours, refreshTTLDays int) *Codec {
	return &Codec{
		secret:     []byte(secret),
		accessTTL:  time.Duration(accessTTLHours) * time.Hour,
		refreshTTL: time.Duration(refreshTTLDays) * 24 * time.Hour,
	}
}

// Issue serializes and signs a token of the given kind for the subject.
// Every token gets a fresh jti, so two logins in the same second still
// mint distinct refresh tokens and track as separate sessions.
// Returns the compact token and its expiry.
func (c *Codec) Issue(subject, username string, kind TokenKind) (string, time.Time, error) {
	now := time.Now().UTC()
	ttl := c.accessTTL
	if kind == KindRefresh {
		ttl = c.refreshTTL
	}
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Username: username,
		Kind:     kind,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature first, then expiry. A tampered or malformed
// token yields ErrTokenInvalid; a well-signed token past its expiry
// yields ErrTokenExpired. Callers depend on that distinction: an
// expired access token invites a refresh attempt, an invalid one does not.
func (c *Codec) Verify(raw string) (Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !tok.Valid || claims.Subject == "" {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}
