package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExternalStatus is the tagged result of an external verification pass.
// NotApplicable is the fall-through signal: the token is not even shaped
// like one of this provider's tokens, so the unified authenticator
// should try the local codec instead of failing the request.
type ExternalStatus int

const (
	ExternalOK ExternalStatus = iota
	ExternalNotApplicable
	ExternalInvalid
	ExternalExpired
)

// ExternalClaims is the subset of provider claims the service cares about.
type ExternalClaims struct {
	Subject       string
	Username      string
	Email         string
	EmailVerified bool
}

// OIDCVerifier validates tokens issued by the external identity provider
// against its published JWKS (RS256 only). Keys are cached per kid and
// re-fetched on a kid miss or when the cache goes stale; a failed
// refresh falls back to the stale keys rather than rejecting outright.
type OIDCVerifier struct {
	issuer          string
	audience        string
	jwksURL         string
	httpClient      *http.Client
	refreshInterval time.Duration

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey // kid -> public key
	lastFetch time.Time
}

// OIDCOption configures the verifier.
type OIDCOption func(*OIDCVerifier)

// WithHTTPClient sets a custom HTTP client for fetching the JWKS.
func WithHTTPClient(c *http.Client) OIDCOption {
	return func(v *OIDCVerifier) { v.httpClient = c }
}

// WithRefreshInterval sets how often cached keys are considered stale.
// Default: 1 hour.
func WithRefreshInterval(d time.Duration) OIDCOption {
	return func(v *OIDCVerifier) { v.refreshInterval = d }
}

// NewOIDCVerifier creates a JWKS-backed verifier for the given issuer
// and audience.
func NewOIDCVerifier(issuer, audience, jwksURL string, opts ...OIDCOption) *OIDCVerifier {
	v := &OIDCVerifier{
		issuer:          issuer,
		audience:        audience,
		jwksURL:         jwksURL,
		httpClient:      http.DefaultClient,
		refreshInterval: 1 * time.Hour,
		keys:            make(map[string]*rsa.PublicKey),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify classifies and, when applicable, fully validates the token.
// Applicability is decided from the unverified header and issuer claim:
// anything that is not an RS256 token claiming this provider's issuer is
// NotApplicable. Applicable tokens are then verified for signature,
// audience, issuer and expiry.
func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (ExternalClaims, ExternalStatus) {
	if !v.applicable(raw) {
		return ExternalClaims{}, ExternalNotApplicable
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	parser := jwt.NewParser(opts...)
	token, err := parser.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return v.getKey(ctx, kid)
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ExternalClaims{}, ExternalExpired
		}
		return ExternalClaims{}, ExternalInvalid
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ExternalClaims{}, ExternalInvalid
	}
	return mapToExternalClaims(mapClaims), ExternalOK
}

// applicable checks the token shape without verifying the signature:
// RSA signing method and a matching unverified issuer claim.
func (v *OIDCVerifier) applicable(raw string) bool {
	var claims jwt.MapClaims
	token, _, err := jwt.NewParser().ParseUnverified(raw, &claims)
	if err != nil {
		return false
	}
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return false
	}
	iss, _ := claims["iss"].(string)
	return iss == v.issuer
}

// getKey returns the RSA public key for the given kid, fetching or
// refreshing the JWKS as needed.
func (v *OIDCVerifier) getKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, found := v.keys[kid]
	stale := time.Since(v.lastFetch) > v.refreshInterval
	v.mu.RUnlock()

	if found && !stale {
		return key, nil
	}

	// Kid miss or cache expired: fetch fresh keys.
	if err := v.refresh(ctx); err != nil {
		if found {
			return key, nil // use stale key if refresh fails
		}
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if key, ok := v.keys[kid]; ok {
		return key, nil
	}
	// No kid in the header: use any available key.
	if kid == "" {
		for _, k := range v.keys {
			return k, nil
		}
	}
	return nil, fmt.Errorf("oidc: key not found for kid %q", kid)
}

// refresh fetches the JWKS from the configured URL and swaps the cache.
func (v *OIDCVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("oidc: create request: %w", err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("oidc: fetch jwks: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oidc: jwks fetch returned status %d", resp.StatusCode)
	}

	var set jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("oidc: decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := k.rsaPublicKey()
		if err != nil {
			continue // skip malformed keys
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("oidc: no valid RSA signing keys in jwks")
	}

	v.mu.Lock()
	v.keys = keys
	v.lastFetch = time.Now()
	v.mu.Unlock()
	return nil
}

type jwksResponse struct {
	Keys []jwkKey `json:"keys"`
}

type jwkKey struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (k *jwkKey) rsaPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}

func mapToExternalClaims(m jwt.MapClaims) ExternalClaims {
	c := ExternalClaims{}
	if v, ok := m["sub"].(string); ok {
		c.Subject = v
	}
	if v, ok := m["username"].(string); ok {
		c.Username = v
	} else if v, ok := m["cognito:username"].(string); ok {
		c.Username = v
	} else if v, ok := m["preferred_username"].(string); ok {
		c.Username = v
	}
	if v, ok := m["email"].(string); ok {
		c.Email = v
	}
	if v, ok := m["email_verified"].(bool); ok {
		c.EmailVerified = v
	}
	return c
}
