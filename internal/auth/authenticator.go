package auth

import "context"

// Principal is the authenticated identity resolved from a bearer token.
type Principal struct {
	Subject       string
	Username      string
	Email         string
	EmailVerified bool
}

// ExternalVerifier is the external identity provider check as seen by
// the authenticator. Satisfied by *OIDCVerifier; a fake suffices in tests.
type ExternalVerifier interface {
	Verify(ctx context.Context, raw string) (ExternalClaims, ExternalStatus)
}

// Authenticator is the request-time decision component. It tries the
// external identity verifier first (when configured) and falls through
// to the local codec, so both token families coexist behind one
// endpoint set with no client-visible branching.
type Authenticator struct {
	codec    *Codec
	external ExternalVerifier // nil when no provider is configured
}

func NewAuthenticator(codec *Codec, external ExternalVerifier) *Authenticator {
	return &Authenticator{codec: codec, external: external}
}

// Authenticate resolves a bearer token to a Principal or a typed failure:
// ErrMissingToken, ErrTokenExpired or ErrTokenInvalid.
//
// The external verifier's NotApplicable is the normal path for locally
// issued tokens and is deliberately silent. Its Invalid/Expired results
// are swallowed too: a token that fails external verification might
// still be a valid local token, and hard-failing here would turn a
// provider misconfiguration into a full outage.
func (a *Authenticator) Authenticate(ctx context.Context, bearer string) (Principal, error) {
	if bearer == "" {
		return Principal{}, ErrMissingToken
	}

	if a.external != nil {
		if claims, status := a.external.Verify(ctx, bearer); status == ExternalOK {
			return Principal{
				Subject:       claims.Subject,
				Username:      claims.Username,
				Email:         claims.Email,
				EmailVerified: claims.EmailVerified,
			}, nil
		}
	}

	claims, err := a.codec.Verify(bearer)
	if err != nil {
		return Principal{}, err
	}
	// Refresh tokens are not request credentials.
	if claims.Kind != KindAccess {
		return Principal{}, ErrTokenInvalid
	}
	return Principal{
		Subject:  claims.Subject,
		Username: claims.Username,
	}, nil
}
