package model

import "time"

// RefreshToken is one entry in a subject's set of currently valid
// refresh tokens, a row in the `refresh_tokens` table. The signed token
// itself is never stored; only its SHA-256 hex digest.
type RefreshToken struct {
	SubjectID string    // refresh_tokens.subject_id
	TokenHash string    // refresh_tokens.token_hash
	ExpiresAt time.Time // refresh_tokens.expires_at
}
