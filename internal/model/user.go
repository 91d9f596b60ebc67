package model

import "time"

// User represents an account record as stored in the `users` table.
// SubjectID is the stable identity carried inside tokens; Username is
// the unique, case-sensitive lookup key used at login. PasswordHash may
// be empty for accounts that authenticate exclusively through the
// external identity provider. EmailVerificationToken holds the pending
// single-use verification token, or "" when none is outstanding.
//
// Fields:
//  SubjectID              – stable, immutable identity (UUID).
//  Username               – unique login name.
//  PasswordHash           – bcrypt hash; empty for provider-only accounts.
//  Email                  – optional contact address.
//  EmailVerified          – whether Email has been confirmed.
//  EmailVerificationToken – pending single-use token, "" if none.
//  CreatedAt              – timestamp of registration.
type User struct {
	SubjectID              string    // users.subject_id
	Username               string    // users.username
	PasswordHash           string    // users.password_hash (nullable)
	Email                  string    // users.email (nullable)
	EmailVerified          bool      // users.email_verified
	EmailVerificationToken string    // users.email_verification_token (nullable)
	CreatedAt              time.Time // users.created_at
}
