// Package repository defines the persistence contracts for user
// credentials, refresh token sets and share grants, together with the
// sentinel errors shared by all implementations. Higher layers match on
// these sentinels to distinguish failure scenarios: for example
// ErrTokenNotFound after a rotation attempt means the presented refresh
// token was already rotated away or revoked, which callers surface as a
// distinct status from a malformed token.
package repository

import "errors"

// ErrUsernameExists is returned by CreateUser when the username is
// already taken. Usernames are the unique lookup key of the store.
var ErrUsernameExists = errors.New("username already exists")

// ErrUserNotFound is returned when no user matches the given lookup key.
var ErrUserNotFound = errors.New("user not found")

// ErrTokenNotFound is returned by RotateRefreshToken when the old token
// hash is not a member of the subject's refresh token set. Exactly one
// of several concurrent rotations of the same token may succeed; the
// rest receive this error.
var ErrTokenNotFound = errors.New("refresh token not found")

// ErrVerificationNotFound is returned by ConsumeEmailVerificationToken
// when no user carries the given pending token. Never-issued and
// already-consumed tokens are indistinguishable on purpose.
var ErrVerificationNotFound = errors.New("verification token not found")

// ErrShareNotFound is returned when no grant matches the given share token.
var ErrShareNotFound = errors.New("share grant not found")
