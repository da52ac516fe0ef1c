// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Two sign-in paths feed this record: email/password (PasswordHash is set)
// and Google OAuth (GoogleID is set). An account that started with a
// password can later be linked to a Google identity — both fields may be
// populated, but at least one always is.
//
// WHY GoogleID string (not int64)?
// Google subject IDs are decimal strings in the ID token and the userinfo
// response. Keeping them as strings avoids pointless parsing and matches
// what the provider actually guarantees (an opaque stable identifier).
type User struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	Name         string    `json:"name"      db:"name"`
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`
	GoogleID     string    `json:"-"         db:"google_id"` // empty ⇒ no linked Google account
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
