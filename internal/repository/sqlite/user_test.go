package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/haneul/bulletin/internal/apperror"
	"github.com/haneul/bulletin/internal/model"
)

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Email:        "test@example.com",
		Name:         "Tester",
		PasswordHash: "$2a$04$fakehash",
	}

	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if user.ID == "" {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("CreateUser() did not set timestamps")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)

	createTestUser(t, db, "dup@example.com")
	err := db.CreateUser(context.Background(), &model.User{Email: "dup@example.com"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() error = %v, want ErrConflict", err)
	}
}

func TestUserLookups(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Email:    "who@example.com",
		Name:     "Who",
		GoogleID: "108123456789",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	byID, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil || byID.Email != user.Email {
		t.Errorf("GetUserByID() = %+v, %v", byID, err)
	}

	byEmail, err := db.GetUserByEmail(context.Background(), "who@example.com")
	if err != nil || byEmail.ID != user.ID {
		t.Errorf("GetUserByEmail() = %+v, %v", byEmail, err)
	}

	byGoogle, err := db.GetUserByGoogleID(context.Background(), "108123456789")
	if err != nil || byGoogle.ID != user.ID {
		t.Errorf("GetUserByGoogleID() = %+v, %v", byGoogle, err)
	}
}

func TestUserLookups_NotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.GetUserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByEmail() error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetUserByGoogleID(context.Background(), "0"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByGoogleID() error = %v, want ErrNotFound", err)
	}
}

func TestUserUpdate_LinksGoogleID(t *testing.T) {
	db := newTestDB(t)

	user := createTestUser(t, db, "link@example.com")
	user.GoogleID = "999888777"
	user.AvatarURL = "https://lh3.example/photo.jpg"

	if err := db.UpdateUser(context.Background(), user); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	found, err := db.GetUserByGoogleID(context.Background(), "999888777")
	if err != nil {
		t.Fatalf("GetUserByGoogleID() after link: %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("linked user ID = %q, want %q", found.ID, user.ID)
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateUser(context.Background(), &model.User{ID: "ghost", Email: "g@example.com"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateUser() error = %v, want ErrNotFound", err)
	}
}
