package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/haneul/bulletin/internal/apperror"
	"github.com/haneul/bulletin/internal/model"
	"github.com/haneul/bulletin/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, name, avatar_url, google_id, password_hash, created_at, updated_at`

func scanUser(scan func(dest ...any) error) (*model.User, error) {
	var (
		u        model.User
		googleID sql.NullString
	)
	err := scan(
		&u.ID, &u.Email, &u.Name, &u.AvatarURL,
		&googleID, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.GoogleID = googleID.String
	return &u, nil
}

// CreateUser inserts a new user. The xid and timestamps are generated here and
// written back onto the caller's struct. A duplicate email surfaces as a
// Conflict so the register handler can say "already registered".
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, avatar_url, google_id, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.AvatarURL,
		nullify(user.GoogleID),
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUserWhere(ctx, `id = ?`, id)
}

// GetUserByEmail retrieves a user by email — the password sign-in lookup.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUserWhere(ctx, `email = ?`, email)
}

// GetUserByGoogleID retrieves a user by their linked Google subject ID.
func (db *DB) GetUserByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return db.getUserWhere(ctx, `google_id = ?`, googleID)
}

func (db *DB) getUserWhere(ctx context.Context, where string, arg any) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg,
	)

	user, err := scanUser(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user (%s): %w", where, err)
	}

	return user, nil
}

// UpdateUser writes the mutable user fields. Used when a Google login refreshes
// the name/avatar or links a Google ID onto an existing email account.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET email = ?, name = ?, avatar_url = ?, google_id = ?, password_hash = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email,
		user.Name,
		user.AvatarURL,
		nullify(user.GoogleID),
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}
