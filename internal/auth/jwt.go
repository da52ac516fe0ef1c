// Package auth provides session tokens, cookies, password hashing, and the
// Google OAuth flow for the bulletin board.
//
// SESSION MODEL:
// A session is a pair of signed JWTs held in HttpOnly cookies:
//
//   - access token (15 minutes) — presented on every request; the middleware
//     validates it and puts the userID into the request context
//   - refresh token (30 days) — presented only to POST /auth/refresh, which
//     rotates the whole pair
//
// Both are HMAC-SHA256 signed with the same server secret. The server keeps
// no session state — everything needed (userID, kind, expiry) is inside the
// signed token, and the signature prevents tampering without the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// AccessTokenTTL is deliberately short: a stolen access token is only
	// useful until it expires, and the refresh flow makes renewal invisible.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL bounds how long a session can stay alive without the
	// user signing in again.
	RefreshTokenTTL = 30 * 24 * time.Hour

	issuer = "bulletin"

	kindAccess  = "access"
	kindRefresh = "refresh"
)

// TokenPair is the two session tokens issued together on sign-in and on
// every refresh rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService signs and verifies session JWTs.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims embeds jwt.RegisteredClaims (Subject, ExpiresAt, IssuedAt, Issuer)
// and adds a kind discriminator so a refresh token can never be replayed as
// an access token or vice versa.
type claims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// GeneratePair issues a fresh access/refresh pair for the given userID.
func (s *TokenService) GeneratePair(userID string) (TokenPair, error) {
	access, err := s.generate(userID, kindAccess, AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.generate(userID, kindRefresh, RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) generate(userID, kind string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing %s token: %w", kind, err)
	}

	return signed, nil
}

// ValidateAccess verifies an access token and returns its userID.
func (s *TokenService) ValidateAccess(tokenStr string) (string, error) {
	return s.validate(tokenStr, kindAccess)
}

// ValidateRefresh verifies a refresh token and returns its userID.
// Only the refresh endpoint should call this.
func (s *TokenService) ValidateRefresh(tokenStr string) (string, error) {
	return s.validate(tokenStr, kindRefresh)
}

// validate parses and verifies a JWT string, checking signature, expiry,
// issuer, algorithm (HS256 only — prevents algorithm confusion attacks),
// and the kind discriminator.
func (s *TokenService) validate(tokenStr, kind string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Kind != kind {
		return "", fmt.Errorf("auth: token kind %q where %q required", c.Kind, kind)
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
