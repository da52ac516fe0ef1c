package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/haneul/bulletin/internal/apperror"
	"github.com/haneul/bulletin/internal/auth"
	"github.com/haneul/bulletin/internal/model"
	"github.com/haneul/bulletin/internal/repository"
)

const MinPasswordLength = 8

// AuthService handles sign-up, sign-in, the Google OAuth callback, and
// refresh-token rotation.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user with a freshly issued token pair so the handler
// can set both session cookies and respond in one step.
type AuthResult struct {
	User   *model.User
	Tokens auth.TokenPair
}

// Register creates an email/password account and signs it in.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	fieldErrors := make(map[string]string)
	if _, err := mail.ParseAddress(email); err != nil {
		fieldErrors["email"] = "please enter a valid email address"
	}
	if name == "" {
		fieldErrors["name"] = "please enter a name"
	}
	if len(password) < MinPasswordLength {
		fieldErrors["password"] = fmt.Sprintf("password must be at least %d characters", MinPasswordLength)
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.ValidationFields(fieldErrors)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if isConflict(err) {
			return nil, apperror.ValidationFields(map[string]string{
				"email": "this email is already registered",
			})
		}
		s.logger.Error("failed to create user",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	return s.issueTokens(user)
}

// SignIn checks an email/password pair. The two failure modes (unknown email,
// wrong password) collapse into one message so the response doesn't reveal
// which emails have accounts.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		s.logger.Error("sign-in lookup failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if user.PasswordHash == "" {
		// Google-only account; there is no password to check.
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	s.logger.Info("user signed in", slog.String("userID", user.ID))

	return s.issueTokens(user)
}

// LoginOrRegisterGoogle completes the OAuth callback. Resolution order:
//
//  1. A user already linked to this Google subject ID signs straight in,
//     picking up any fresher name/avatar from Google.
//  2. Otherwise an existing account with the same email gets the Google ID
//     linked onto it, so password users can start using Google sign-in.
//  3. Otherwise a new account is created.
func (s *AuthService) LoginOrRegisterGoogle(ctx context.Context, gUser *auth.GoogleUser) (*AuthResult, error) {
	if gUser == nil {
		return nil, fmt.Errorf("google user must not be nil")
	}

	user, err := s.users.GetUserByGoogleID(ctx, gUser.ID)
	switch {
	case err == nil:
		user.Name = gUser.Name
		user.AvatarURL = gUser.Picture
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("refreshing google profile: %w", err)
		}

	case isNotFound(err):
		user, err = s.linkOrCreateGoogleUser(ctx, gUser)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("looking up google user: %w", err)
	}

	s.logger.Info("user authenticated via Google", slog.String("userID", user.ID))

	return s.issueTokens(user)
}

func (s *AuthService) linkOrCreateGoogleUser(ctx context.Context, gUser *auth.GoogleUser) (*model.User, error) {
	existing, err := s.users.GetUserByEmail(ctx, gUser.Email)
	if err == nil {
		existing.GoogleID = gUser.ID
		existing.AvatarURL = gUser.Picture
		if err := s.users.UpdateUser(ctx, existing); err != nil {
			return nil, fmt.Errorf("linking google account: %w", err)
		}
		s.logger.Info("google account linked", slog.String("userID", existing.ID))
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("looking up user by email: %w", err)
	}

	user := &model.User{
		Email:     gUser.Email,
		Name:      gUser.Name,
		AvatarURL: gUser.Picture,
		GoogleID:  gUser.ID,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("creating google user: %w", err)
	}
	return user, nil
}

// Refresh validates a refresh token and rotates the whole pair: the caller
// gets a new access token and a new refresh token, and the session's 30-day
// window restarts from now.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized("session expired, please sign in again")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			// Deleted account with a live refresh token.
			return nil, apperror.Unauthorized("session expired, please sign in again")
		}
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}

	return s.issueTokens(user)
}

// GetUserByID returns the user record for a validated session's subject.
// The /api/me handler uses it after the middleware extracts the user ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthorized("not signed in")
	}
	return s.users.GetUserByID(ctx, id)
}

func (s *AuthService) issueTokens(user *model.User) (*AuthResult, error) {
	pair, err := s.tokens.GeneratePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing tokens for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Tokens: pair}, nil
}
