// Package repository defines the storage interfaces the service layer
// depends on. The sqlite subpackage is the only implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/haneul/bulletin/internal/model"
)

// ListOptions carries limit/offset pagination for list and search queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// ProfilePatch is a partial profile update: nil fields are left untouched by
// Upsert, non-nil fields overwrite. This mirrors the upsert-only-what-was-
// submitted behaviour the profile and WBTI forms need — the WBTI form must
// not blank out the nickname.
type ProfilePatch struct {
	Nickname  *string
	Bio       *string
	AvatarURL *string
	WBTICode  *string
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, opts ListOptions) ([]model.Post, error)
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, query string, opts ListOptions) ([]model.Post, error)
	SearchCount(ctx context.Context, query string) (int, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
}

type ProfileRepository interface {
	// GetProfile returns the profile for userID, or apperror.ErrNotFound when
	// the user has never written one.
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	// UpsertProfile inserts the profile on first write, otherwise merges the
	// patch into the existing row. Returns the stored record.
	UpsertProfile(ctx context.Context, userID string, patch ProfilePatch) (*model.Profile, error)
	// NicknameExists reports whether any profile other than excludingUserID's
	// already uses the nickname.
	NicknameExists(ctx context.Context, nickname, excludingUserID string) (bool, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkAllRead(ctx context.Context, userID string) error
}
