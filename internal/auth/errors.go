// Package auth implements credential verification and token lifecycle:
// password hashing, the local HS256 token codec, the optional external
// identity verifier, the unified request-time authenticator, session
// issuance/rotation/revocation and the verification/share grant manager.
package auth

// Code classifies authentication failures. The Expired/Invalid split is
// load-bearing: handlers map Expired to 401 (a refresh may succeed) and
// Invalid/NotRecognized to 403 (re-login required), and clients key
// their retry logic off that difference.
type Code int

const (
	CodeMissing Code = iota + 1 // no bearer token presented
	CodeExpired                 // signature fine, past expiry
	CodeInvalid                 // tampered, malformed or wrong-kind token
	CodeNotRecognized           // refresh token revoked or already rotated
	CodeInvalidCredentials      // unknown username or wrong password
	CodeNotFound                // verification or share token does not exist
	CodeGrantExpired            // share grant past its expiry
)

// Error is a typed authentication failure.
type Error struct {
	Code Code
	msg  string
}

func (e *Error) Error() string { return e.msg }

var (
	ErrMissingToken       = &Error{CodeMissing, "missing bearer token"}
	ErrTokenExpired       = &Error{CodeExpired, "token expired"}
	ErrTokenInvalid       = &Error{CodeInvalid, "invalid token"}
	ErrNotRecognized      = &Error{CodeNotRecognized, "refresh token not recognized"}
	ErrInvalidCredentials = &Error{CodeInvalidCredentials, "invalid credentials"}
	ErrGrantNotFound      = &Error{CodeNotFound, "token not found"}
	ErrGrantExpired       = &Error{CodeGrantExpired, "share grant expired"}
)

// CodeOf extracts the failure code from err, or 0 for non-auth errors.
func CodeOf(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return 0
}
