package model

import "time"

// Profile is the public-facing record attached one-to-one to a user.
// It is created lazily on first write (upsert keyed on UserID) and never
// explicitly deleted.
//
// WBTICode is a 4-character categorical code, one letter per axis:
// first ∈ {F,E,X}, second ∈ {C,I,X}, third ∈ {S,N,X}, fourth ∈ {H,P,X}.
// Validation happens in the service layer; the model just carries it.
type Profile struct {
	UserID    string    `json:"userId"    db:"user_id"`
	Nickname  string    `json:"nickname"  db:"nickname"` // unique across profiles
	Bio       string    `json:"bio"       db:"bio"`
	AvatarURL string    `json:"avatarUrl" db:"avatar_url"`
	WBTICode  string    `json:"wbtiCode"  db:"wbti_code"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
