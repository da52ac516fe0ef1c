package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/haneul/bulletin/internal/auth"
	"github.com/haneul/bulletin/internal/handler"
	"github.com/haneul/bulletin/internal/repository/sqlite"
	"github.com/haneul/bulletin/internal/service"
)

type authFixture struct {
	handler     *handler.AuthHandler
	authService *service.AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewTokenService("test-secret-0123456789abcdef")
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	google := auth.NewGoogleProvider("client-id", "client-secret", "http://localhost:8080/auth/google/callback")

	authService := service.NewAuthService(db, tokens, passwords, logger)
	notifications := service.NewNotificationService(db, logger)

	return &authFixture{
		handler: handler.NewAuthHandler(
			authService, notifications, google, auth.CookieWriter{}, logger,
		),
		authService: authService,
	}
}

func findCookie(t *testing.T, rr *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	f := newAuthFixture(t)

	body := jsonBody(t, map[string]string{
		"email":    "a@example.com",
		"name":     "A",
		"password": "hunter22pass",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rr := httptest.NewRecorder()

	f.handler.HandleRegister(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	access := findCookie(t, rr, auth.AccessCookie)
	refresh := findCookie(t, rr, auth.RefreshCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.NotEmpty(t, access.Value)
	assert.True(t, access.HttpOnly)

	// The response body is the user, without the password hash.
	assert.NotContains(t, rr.Body.String(), "passwordHash")
	assert.NotContains(t, rr.Body.String(), "$2a$")
}

func TestAuthHandler_LoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.authService.Register(context.Background(), "a@example.com", "A", "hunter22pass")
	require.NoError(t, err)

	body := jsonBody(t, map[string]string{"email": "a@example.com", "password": "nope"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rr := httptest.NewRecorder()

	f.handler.HandleLogin(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Nil(t, findCookie(t, rr, auth.AccessCookie))
}

func TestAuthHandler_Refresh(t *testing.T) {
	f := newAuthFixture(t)

	registered, err := f.authService.Register(context.Background(), "a@example.com", "A", "hunter22pass")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookie, Value: registered.Tokens.RefreshToken})
	rr := httptest.NewRecorder()

	f.handler.HandleRefresh(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotNil(t, findCookie(t, rr, auth.AccessCookie))
	assert.NotNil(t, findCookie(t, rr, auth.RefreshCookie))
}

func TestAuthHandler_RefreshWithoutCookie(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	rr := httptest.NewRecorder()

	f.handler.HandleRefresh(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rr := httptest.NewRecorder()

	f.handler.HandleLogout(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)

	access := findCookie(t, rr, auth.AccessCookie)
	require.NotNil(t, access)
	assert.Equal(t, -1, access.MaxAge)
}

func TestAuthHandler_GoogleLoginRedirect(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/google?next=/posts/abc", nil)
	rr := httptest.NewRecorder()

	f.handler.HandleGoogleLogin(rr, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Contains(t, rr.Header().Get("Location"), "accounts.google.com")

	state := findCookie(t, rr, auth.OAuthStateCookie)
	require.NotNil(t, state)
	assert.Contains(t, rr.Header().Get("Location"), "state="+state.Value)

	next := findCookie(t, rr, auth.OAuthNextCookie)
	require.NotNil(t, next)
	assert.Equal(t, "/posts/abc", next.Value)
}

func TestAuthHandler_GoogleLoginRejectsOffsiteNext(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/google?next=//evil.example", nil)
	rr := httptest.NewRecorder()

	f.handler.HandleGoogleLogin(rr, req)

	next := findCookie(t, rr, auth.OAuthNextCookie)
	require.NotNil(t, next)
	assert.Equal(t, "/", next.Value)
}

func TestAuthHandler_GoogleCallbackStateMismatch(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=x&state=attacker", nil)
	req.AddCookie(&http.Cookie{Name: auth.OAuthStateCookie, Value: "expected"})
	rr := httptest.NewRecorder()

	f.handler.HandleGoogleCallback(rr, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "/login?error=state_mismatch", rr.Header().Get("Location"))
	assert.Nil(t, findCookie(t, rr, auth.AccessCookie))
}

func TestAuthHandler_Me(t *testing.T) {
	f := newAuthFixture(t)

	registered, err := f.authService.Register(context.Background(), "a@example.com", "A", "hunter22pass")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), registered.User.ID))
	rr := httptest.NewRecorder()

	f.handler.HandleMe(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		UnreadCount int `json:"unreadCount"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "a@example.com", resp.User.Email)
	assert.Equal(t, 0, resp.UnreadCount)
}
