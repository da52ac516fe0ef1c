package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haneul/bulletin/internal/apperror"
	"github.com/haneul/bulletin/internal/auth"
	"github.com/haneul/bulletin/internal/service"
	"github.com/haneul/bulletin/internal/toast"
)

// ProfileHandler serves the member profile endpoints. All routes run behind
// RequireAuth, so a missing user ID in the context is a programming error in
// the route wiring, not a client mistake.
type ProfileHandler struct {
	profiles      *service.ProfileService
	notifications *service.NotificationService
	toasts        *toast.Store
	logger        *slog.Logger
}

func NewProfileHandler(
	profiles *service.ProfileService,
	notifications *service.NotificationService,
	toasts *toast.Store,
	logger *slog.Logger,
) *ProfileHandler {
	return &ProfileHandler{
		profiles:      profiles,
		notifications: notifications,
		toasts:        toasts,
		logger:        logger,
	}
}

// HandleGet returns the caller's profile, empty if never saved.
//
// HTTP: GET /api/profile
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("not signed in"))
		return
	}

	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type profileRequest struct {
	Nickname  string `json:"nickname"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}

// HandleUpdate saves the profile form.
//
// HTTP: PUT /api/profile
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("not signed in"))
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid profile JSON", slog.String("error", err.Error()))
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	profile, err := h.profiles.Update(r.Context(), userID, service.ProfileInput{
		Nickname:  req.Nickname,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.toasts.Add("profile saved", toast.Success)
	writeJSON(w, http.StatusOK, profile)
}

type wbtiRequest struct {
	Code string `json:"code"`
}

// HandleSetWBTI records the caller's WBTI quiz result.
//
// HTTP: POST /api/wbti
func (h *ProfileHandler) HandleSetWBTI(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("not signed in"))
		return
	}

	var req wbtiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid WBTI JSON", slog.String("error", err.Error()))
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	profile, err := h.profiles.SetWBTI(r.Context(), userID, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	h.toasts.Add("WBTI result saved", toast.Success)
	writeJSON(w, http.StatusOK, profile)
}

// HandleMarkNotificationsRead clears the caller's unread badge.
//
// HTTP: POST /api/notifications/read
func (h *ProfileHandler) HandleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("not signed in"))
		return
	}

	if err := h.notifications.MarkAllRead(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleToasts returns the currently visible toasts.
//
// HTTP: GET /api/toasts
func (h *ProfileHandler) HandleToasts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.toasts.List())
}

// HandleDismissToast dismisses one toast early.
//
// HTTP: DELETE /api/toasts/{id}
func (h *ProfileHandler) HandleDismissToast(w http.ResponseWriter, r *http.Request) {
	h.toasts.Remove(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
