package model

import "time"

// Notification is a per-user message surfaced as an unread badge in the
// header. The layout load only needs the unread count; the full list is
// fetched on demand.
type Notification struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	Message   string    `json:"message"   db:"message"`
	Read      bool      `json:"read"      db:"read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
