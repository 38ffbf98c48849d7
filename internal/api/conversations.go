package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MikeSquared-Agency/procstop/internal/analytics"
	"github.com/MikeSquared-Agency/procstop/internal/chat"
	"github.com/MikeSquared-Agency/procstop/internal/completion"
	"github.com/MikeSquared-Agency/procstop/internal/prompt"
	"github.com/go-chi/chi/v5"
)

type startRequest struct {
	UserID   string `json:"user_id"`
	Gender   string `json:"gender,omitempty"`
	Language string `json:"language,omitempty"`
}

type messageRequest struct {
	Message string `json:"message"`
}

// startConversation handles POST /api/v1/conversations
func (s *Server) startConversation(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Language == "" {
		req.Language = s.language
	}

	conv, err := s.chat.Start(r.Context(), req.UserID, prompt.Profile{Gender: req.Gender, Language: req.Language})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// postMessage handles POST /api/v1/conversations/{id}/messages
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reply, err := s.chat.Turn(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// endConversation handles DELETE /api/v1/conversations/{id}
func (s *Server) endConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.End(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// userAnalytics handles GET /api/v1/users/{userID}/analytics
func (s *Server) userAnalytics(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	tables, err := s.history.Extract(r.Context(), userID)
	if err != nil {
		s.fail(w, r, errors.Join(chat.ErrStoreUnavailable, err))
		return
	}

	summary, err := analytics.Summarize(tables)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// fail maps pipeline errors to responses. Internal detail stays in the log.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var structural *analytics.StructuralError
	switch {
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMissingUser):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, chat.ErrUnknownConversation):
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	case completion.Recoverable(err),
		errors.Is(err, chat.ErrFeaturesUnavailable),
		errors.Is(err, chat.ErrStoreUnavailable):
		s.logger.Warn("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		return
	case errors.As(err, &structural):
		s.logger.Error("aggregation failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "chart unavailable")
		return
	}
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
