package model

import "time"

// ShareGrant binds an opaque share token to exactly one image variant
// for anonymous, read-only access until ExpiresAt. Grants are consumed
// any number of times while unexpired and are lazily evicted once past
// their expiry.
type ShareGrant struct {
	Token        string    // opaque token embedded in the share URL
	ResourceID   string    // image the grant exposes
	Variant      string    // named transform variant (e.g. "original", "sepia")
	OwnerSubject string    // subject id of the user who created the grant
	ExpiresAt    time.Time // absolute expiry, UTC
}

// Expired reports whether the grant is no longer resolvable at t.
func (g ShareGrant) Expired(t time.Time) bool {
	return !t.Before(g.ExpiresAt)
}
