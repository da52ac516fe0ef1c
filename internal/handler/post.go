// Package handler is the HTTP layer: it parses requests, calls the services,
// and translates domain errors into status codes. No business rules live here.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/haneul/bulletin/internal/auth"
	"github.com/haneul/bulletin/internal/model"
	"github.com/haneul/bulletin/internal/service"
	"github.com/haneul/bulletin/internal/toast"
)

// PostHandler serves the bulletin board's post endpoints.
type PostHandler struct {
	posts  *service.PostService
	toasts *toast.Store
	logger *slog.Logger
}

func NewPostHandler(posts *service.PostService, toasts *toast.Store, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		posts:  posts,
		toasts: toasts,
		logger: logger,
	}
}

// postRequest is the JSON body for creating and editing posts. The edit
// password doubles as the credential when mutating an anonymous post.
type postRequest struct {
	Title               string `json:"title"`
	Content             string `json:"content"`
	AuthorName          string `json:"author"`
	Tags                string `json:"tags"`
	EditPassword        string `json:"editPassword"`
	EditPasswordConfirm string `json:"editPasswordConfirm"`
}

func (req postRequest) input() service.PostInput {
	return service.PostInput{
		Title:               req.Title,
		Content:             req.Content,
		AuthorName:          req.AuthorName,
		Tags:                req.Tags,
		EditPassword:        req.EditPassword,
		EditPasswordConfirm: req.EditPasswordConfirm,
	}
}

// HandleList returns one page of the board.
//
// HTTP: GET /api/posts?page=N
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)
	writeJSON(w, http.StatusOK, h.posts.List(r.Context(), page))
}

// HandleLatest returns the newest posts for the home page strip.
//
// HTTP: GET /api/posts/latest
func (h *PostHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.posts.Latest(r.Context()))
}

// HandleGet returns a single post.
//
// HTTP: GET /api/posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleSearch runs a keyword search.
//
// HTTP: GET /api/search?q=...&page=N
func (h *PostHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	page, err := h.posts.Search(r.Context(), r.URL.Query().Get("q"), pageParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleCreate saves a new post. The route runs behind OptionalAuth: a signed
// in author produces an owned post, everyone else an anonymous one.
//
// HTTP: POST /api/posts
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid post JSON", slog.String("error", err.Error()))
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	post, err := h.posts.Create(r.Context(), req.input(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.toasts.Add("post published", toast.Success)
	writeJSON(w, http.StatusCreated, post)
}

// HandleUpdate edits a post. For anonymous posts the body's editPassword is
// the credential; for owned posts the session is.
//
// HTTP: PUT /api/posts/{id}
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid post JSON", slog.String("error", err.Error()))
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	post, err := h.posts.Update(r.Context(), chi.URLParam(r, "id"), req.input(), model.EditRequest{
		UserID:   userID,
		Password: req.EditPassword,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.toasts.Add("post updated", toast.Success)
	writeJSON(w, http.StatusOK, post)
}

// deleteRequest carries the edit password for deleting an anonymous post.
type deleteRequest struct {
	EditPassword string `json:"editPassword"`
}

// HandleDelete removes a post.
//
// HTTP: DELETE /api/posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	// The body is optional: owned posts authenticate via the session.
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	err := h.posts.Delete(r.Context(), chi.URLParam(r, "id"), model.EditRequest{
		UserID:   userID,
		Password: req.EditPassword,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.toasts.Add("post deleted", toast.Info)
	w.WriteHeader(http.StatusNoContent)
}

// pageParam reads ?page= with a default of 1; garbage falls back to 1.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
