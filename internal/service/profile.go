package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/haneul/bulletin/internal/apperror"
	"github.com/haneul/bulletin/internal/model"
	"github.com/haneul/bulletin/internal/repository"
)

const (
	MinNicknameLength = 2
	MaxNicknameLength = 20
)

// wbtiPattern matches a valid WBTI code: one letter per axis, with X marking
// an axis the quiz left undecided.
var wbtiPattern = regexp.MustCompile(`^[FEX][CIX][SNX][HPX]$`)

// ProfileService handles member profile logic: the profile form, nickname
// uniqueness, and the WBTI personality code.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

func NewProfileService(profiles repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		logger:   logger,
	}
}

// ProfileInput is the submitted profile form data.
type ProfileInput struct {
	Nickname  string
	Bio       string
	AvatarURL string
}

// Get returns the user's profile. A user who has never saved one gets an
// empty profile rather than an error — the profile page renders a blank form.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return &model.Profile{UserID: userID}, nil
		}
		s.logger.Error("failed to load profile",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return profile, nil
}

// Update validates and saves the profile form. The nickname must be 2-20
// characters and not in use by anyone else; when the availability check
// itself fails, the nickname is treated as taken rather than risking a
// duplicate.
func (s *ProfileService) Update(ctx context.Context, userID string, input ProfileInput) (*model.Profile, error) {
	nickname := strings.TrimSpace(input.Nickname)

	fieldErrors := make(map[string]string)
	if n := len([]rune(nickname)); n < MinNicknameLength || n > MaxNicknameLength {
		fieldErrors["nickname"] = fmt.Sprintf("nickname must be %d-%d characters",
			MinNicknameLength, MaxNicknameLength)
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.ValidationFields(fieldErrors)
	}

	taken, err := s.profiles.NicknameExists(ctx, nickname, userID)
	if err != nil {
		s.logger.Error("nickname availability check failed",
			slog.String("nickname", nickname),
			slog.String("error", err.Error()),
		)
		taken = true
	}
	if taken {
		return nil, apperror.ValidationFields(map[string]string{
			"nickname": "this nickname is already in use",
		})
	}

	bio := strings.TrimSpace(input.Bio)
	avatarURL := strings.TrimSpace(input.AvatarURL)
	profile, err := s.profiles.UpsertProfile(ctx, userID, repository.ProfilePatch{
		Nickname:  &nickname,
		Bio:       &bio,
		AvatarURL: &avatarURL,
	})
	if err != nil {
		// Two racing saves can both pass the pre-check; the UNIQUE
		// constraint catches the loser here.
		if isConflict(err) {
			return nil, apperror.ValidationFields(map[string]string{
				"nickname": "this nickname is already in use",
			})
		}
		s.logger.Error("failed to save profile",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	s.logger.Info("profile saved",
		slog.String("userID", userID),
		slog.String("nickname", nickname),
	)

	return profile, nil
}

func isNotFound(err error) bool { return errors.Is(err, apperror.ErrNotFound) }
func isConflict(err error) bool { return errors.Is(err, apperror.ErrConflict) }

// SetWBTI records the user's WBTI personality code. The code is uppercased
// before the format check, and the patch touches only the wbti_code column
// so the rest of the profile survives.
func (s *ProfileService) SetWBTI(ctx context.Context, userID, code string) (*model.Profile, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !wbtiPattern.MatchString(code) {
		return nil, apperror.ValidationFailed("wbti", "invalid WBTI code")
	}

	profile, err := s.profiles.UpsertProfile(ctx, userID, repository.ProfilePatch{
		WBTICode: &code,
	})
	if err != nil {
		s.logger.Error("failed to save WBTI code",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("saving WBTI code: %w", err)
	}

	s.logger.Info("WBTI code saved",
		slog.String("userID", userID),
		slog.String("code", code),
	)

	return profile, nil
}
