// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"time"

	"github.com/haneul/bulletin/internal/apperror"
)

// AnonymousAuthor is the display name substituted when a post row has no
// author name. The row mapper in the repository applies it, so callers never
// see an empty author field.
const AnonymousAuthor = "anonymous"

// Post represents a bulletin-board post.
//
// A post is either OWNED (UserID is set, mutations require that identity) or
// ANONYMOUS (UserID is empty, mutations require the edit password chosen at
// write time). Exactly one of UserID / EditPasswordHash is ever set — the
// repository enforces this at insert time and Ownership() relies on it.
//
// EditPasswordHash carries the `json:"-"` tag so the bcrypt hash can never
// leak into an API response, no matter which handler serializes the post.
type Post struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"` // rich text / HTML
	AuthorName       string    `json:"author"`
	UserID           string    `json:"userId,omitempty"` // empty ⇒ anonymous post
	EditPasswordHash string    `json:"-"`
	Tags             []string  `json:"tags"`
	LikeCount        int       `json:"likes"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Anonymous reports whether the post has no owning identity.
func (p *Post) Anonymous() bool {
	return p.UserID == ""
}

// OwnershipKind discriminates the two mutation authorities a post can have.
type OwnershipKind int

const (
	// Owned: mutations require the owning user's identity.
	Owned OwnershipKind = iota
	// PasswordProtected: mutations require the edit password set at write time.
	PasswordProtected
)

// Ownership is a tagged union describing who may mutate a post.
//
// Modelling this explicitly (instead of scattering `if post.UserID != ""`
// checks through the handlers) keeps the whole authorization decision in one
// function, CanEdit, which every mutation path goes through.
type Ownership struct {
	Kind         OwnershipKind
	UserID       string // set when Kind == Owned
	PasswordHash string // set when Kind == PasswordProtected
}

// Ownership derives the post's mutation authority from its stored fields.
func (p *Post) Ownership() Ownership {
	if p.Anonymous() {
		return Ownership{Kind: PasswordProtected, PasswordHash: p.EditPasswordHash}
	}
	return Ownership{Kind: Owned, UserID: p.UserID}
}

// EditRequest describes the caller attempting a mutation.
// UserID is empty for unauthenticated requests; Password carries the
// caller-supplied edit password for anonymous posts.
type EditRequest struct {
	UserID   string
	Password string
}

// PasswordVerifier checks a plaintext password against a stored hash,
// returning nil on match. The auth package's bcrypt service satisfies it;
// tests substitute a plain comparison.
type PasswordVerifier func(hash, plaintext string) error

// CanEdit decides whether the request may mutate a post with this ownership.
// It returns nil to allow, or a typed apperror to reject:
//
//   - anonymous post + unauthenticated + correct password → allow
//   - anonymous post + authenticated → Forbidden, regardless of password
//   - owned post + requester is owner → allow
//   - owned post + unauthenticated → Unauthorized
//   - owned post + requester is not owner → Forbidden
func (o Ownership) CanEdit(req EditRequest, verify PasswordVerifier) error {
	switch o.Kind {
	case PasswordProtected:
		if req.UserID != "" {
			return apperror.Forbidden("anonymous posts can only be edited with their password while logged out")
		}
		if verify == nil || verify(o.PasswordHash, req.Password) != nil {
			return apperror.Forbidden("edit password does not match")
		}
		return nil
	case Owned:
		if req.UserID == "" {
			return apperror.Unauthorized("sign in to edit this post")
		}
		if req.UserID != o.UserID {
			return apperror.Forbidden("only the author can edit this post")
		}
		return nil
	default:
		return apperror.Forbidden("post has no recognised ownership")
	}
}
