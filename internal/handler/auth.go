package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/rs/xid"

	"github.com/haneul/bulletin/internal/apperror"
	"github.com/haneul/bulletin/internal/auth"
	"github.com/haneul/bulletin/internal/service"
)

// AuthHandler serves registration, sign-in, the Google OAuth dance, refresh
// rotation, and logout. Session state lives entirely in the two HttpOnly
// token cookies; the handler's job is moving tokens between the service and
// those cookies.
type AuthHandler struct {
	authService   *service.AuthService
	notifications *service.NotificationService
	google        *auth.GoogleProvider
	cookies       auth.CookieWriter
	logger        *slog.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	notifications *service.NotificationService,
	google *auth.GoogleProvider,
	cookies auth.CookieWriter,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		notifications: notifications,
		google:        google,
		cookies:       cookies,
		logger:        logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// HandleRegister creates an email/password account and signs it in.
//
// HTTP: POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := h.authService.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.SetSession(w, result.Tokens)
	writeJSON(w, http.StatusCreated, result.User)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin signs in with email and password.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.SetSession(w, result.Tokens)
	writeJSON(w, http.StatusOK, result.User)
}

// HandleGoogleLogin starts the OAuth flow. The random state lands in a
// short-lived cookie alongside the post-login destination, then the browser
// goes to Google.
//
// HTTP: GET /auth/google?next=/somewhere
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()
	next := auth.SafeNext(r.URL.Query().Get("next"), "/")

	h.cookies.SetOAuth(w, state, next)
	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback finishes the OAuth flow: state check, code exchange,
// sign-in or registration, session cookies, then a redirect to wherever the
// user was headed. Failures redirect to the login page with an error code
// instead of rendering JSON — the user is mid-navigation, not calling an API.
//
// HTTP: GET /auth/google/callback?code=...&state=...
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	// The oauth cookies are single-use; drop them no matter how this ends.
	// Set-Cookie headers must be in place before any redirect writes them out.
	h.cookies.ClearOAuth(w)

	stateCookie, err := r.Cookie(auth.OAuthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		h.logger.Warn("oauth state mismatch")
		h.redirectLoginError(w, r, "state_mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		// The user cancelled on Google's consent screen.
		h.redirectLoginError(w, r, "cancelled")
		return
	}

	gUser, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("google code exchange failed", slog.String("error", err.Error()))
		h.redirectLoginError(w, r, "exchange_failed")
		return
	}

	result, err := h.authService.LoginOrRegisterGoogle(r.Context(), gUser)
	if err != nil {
		h.logger.Error("google sign-in failed", slog.String("error", err.Error()))
		h.redirectLoginError(w, r, "signin_failed")
		return
	}

	h.cookies.SetSession(w, result.Tokens)

	next := "/"
	if c, err := r.Cookie(auth.OAuthNextCookie); err == nil {
		next = auth.SafeNext(c.Value, "/")
	}
	http.Redirect(w, r, next, http.StatusTemporaryRedirect)
}

// HandleRefresh rotates the session from the refresh cookie.
//
// HTTP: POST /auth/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.RefreshCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, apperror.Unauthorized("no session to refresh"))
		return
	}

	result, err := h.authService.Refresh(r.Context(), cookie.Value)
	if err != nil {
		h.cookies.ClearSession(w)
		writeError(w, err)
		return
	}

	h.cookies.SetSession(w, result.Tokens)
	writeJSON(w, http.StatusOK, result.User)
}

// HandleLogout clears the session cookies. The JWTs themselves stay valid
// until expiry; logout is a client-side forget.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

// meResponse is the session summary the frontend loads on every page.
type meResponse struct {
	User        any `json:"user"`
	UnreadCount int `json:"unreadCount"`
}

// HandleMe returns the signed-in user and their unread badge count.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("not signed in"))
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		User:        user,
		UnreadCount: h.notifications.UnreadCount(r.Context(), userID),
	})
}

func (h *AuthHandler) redirectLoginError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(code), http.StatusTemporaryRedirect)
}
