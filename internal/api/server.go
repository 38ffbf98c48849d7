package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/procstop/internal/chat"
	"github.com/MikeSquared-Agency/procstop/internal/history"
	"github.com/MikeSquared-Agency/procstop/internal/prompt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Chat is the conversation surface the API serves.
type Chat interface {
	Start(ctx context.Context, userID string, p prompt.Profile) (*chat.Conversation, error)
	Turn(ctx context.Context, conversationID, text string) (*chat.Reply, error)
	End(ctx context.Context, conversationID string) error
	Active() int
}

// History loads a user's flattened conversation history.
type History interface {
	Extract(ctx context.Context, userID string) (*history.Tables, error)
}

// EventBus reports the state of the event connection.
type EventBus interface {
	Connected() bool
}

type Server struct {
	router   *chi.Mux
	port     int
	chat     Chat
	history  History
	events   EventBus
	language string
	logger   *slog.Logger
	http     *http.Server
}

// NewServer builds the router. The /api/v1 routes require apiToken as a
// bearer token when it is non-empty.
func NewServer(port int, apiToken string, c Chat, h History, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		chat:     c,
		history:  h,
		language: prompt.DefaultLanguage,
		logger:   logger,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Get("/procstop/status", s.status)
		r.Post("/conversations", s.startConversation)
		r.Post("/conversations/{id}/messages", s.postMessage)
		r.Delete("/conversations/{id}", s.endConversation)
		r.Get("/users/{userID}/analytics", s.userAnalytics)
	})

	return s
}

// SetLanguage sets the language used when a new conversation names none.
func (s *Server) SetLanguage(language string) {
	s.language = language
}

// SetEvents reports the event bus in the status endpoint.
func (s *Server) SetEvents(e EventBus) {
	s.events = e
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	events := "disabled"
	if s.events != nil {
		events = "disconnected"
		if s.events.Connected() {
			events = "connected"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":                "procstop",
		"status":               "ready",
		"active_conversations": s.chat.Active(),
		"events":               events,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
