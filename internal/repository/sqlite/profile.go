package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/haneul/bulletin/internal/apperror"
	"github.com/haneul/bulletin/internal/model"
	"github.com/haneul/bulletin/internal/repository"
)

// compile-time check that *DB implements repository.ProfileRepository
var _ repository.ProfileRepository = (*DB)(nil)

const profileColumns = `user_id, nickname, bio, avatar_url, wbti_code, updated_at`

// scanProfile maps a profiles row, defaulting NULL columns to empty strings.
func scanProfile(scan func(dest ...any) error) (*model.Profile, error) {
	var (
		p         model.Profile
		nickname  sql.NullString
		bio       sql.NullString
		avatarURL sql.NullString
		wbtiCode  sql.NullString
	)

	err := scan(&p.UserID, &nickname, &bio, &avatarURL, &wbtiCode, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Nickname = nickname.String
	p.Bio = bio.String
	p.AvatarURL = avatarURL.String
	p.WBTICode = wbtiCode.String

	return &p, nil
}

// GetProfile returns the profile for userID, or apperror.ErrNotFound when the user
// has never saved one.
func (db *DB) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID,
	)

	profile, err := scanProfile(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, fmt.Errorf("sqlite: getting profile %s: %w", userID, err)
	}

	return profile, nil
}

// UpsertProfile inserts or updates the profile keyed on user_id, touching only the
// fields the patch carries.
//
// The merge happens in Go (read, apply patch, write) rather than with a
// dynamic ON CONFLICT clause — the same select-then-write idiom the user
// upsert uses, and it keeps the SQL static.
func (db *DB) UpsertProfile(ctx context.Context, userID string, patch repository.ProfilePatch) (*model.Profile, error) {
	existing, err := db.GetProfile(ctx, userID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}

	profile := existing
	if profile == nil {
		profile = &model.Profile{UserID: userID}
	}

	if patch.Nickname != nil {
		profile.Nickname = *patch.Nickname
	}
	if patch.Bio != nil {
		profile.Bio = *patch.Bio
	}
	if patch.AvatarURL != nil {
		profile.AvatarURL = *patch.AvatarURL
	}
	if patch.WBTICode != nil {
		profile.WBTICode = *patch.WBTICode
	}
	profile.UpdatedAt = time.Now()

	if existing == nil {
		_, err = db.conn.ExecContext(ctx,
			`INSERT INTO profiles (user_id, nickname, bio, avatar_url, wbti_code, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			profile.UserID,
			nullify(profile.Nickname),
			nullify(profile.Bio),
			nullify(profile.AvatarURL),
			nullify(profile.WBTICode),
			profile.UpdatedAt,
		)
	} else {
		_, err = db.conn.ExecContext(ctx,
			`UPDATE profiles
			 SET nickname = ?, bio = ?, avatar_url = ?, wbti_code = ?, updated_at = ?
			 WHERE user_id = ?`,
			nullify(profile.Nickname),
			nullify(profile.Bio),
			nullify(profile.AvatarURL),
			nullify(profile.WBTICode),
			profile.UpdatedAt,
			profile.UserID,
		)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("nickname", profile.Nickname)
		}
		return nil, fmt.Errorf("sqlite: upserting profile %s: %w", userID, err)
	}

	return profile, nil
}

// NicknameExists reports whether another user's profile already holds the
// nickname. The excludingUserID carve-out lets a user re-save their own
// nickname without tripping the check.
func (db *DB) NicknameExists(ctx context.Context, nickname, excludingUserID string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profiles WHERE nickname = ? AND user_id != ?`,
		nickname, excludingUserID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking nickname %q: %w", nickname, err)
	}
	return n > 0, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}

// The UNIQUE constraint on profiles.nickname is the backstop behind the
// NicknameExists pre-check; when two writes race, one of them lands here.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
