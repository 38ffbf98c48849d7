// Package chat runs the conversation pipeline: feature extraction, context
// accumulation, prompting, completion and persistence.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/procstop/internal/completion"
	"github.com/MikeSquared-Agency/procstop/internal/extractor"
	"github.com/MikeSquared-Agency/procstop/internal/hermes"
	"github.com/MikeSquared-Agency/procstop/internal/prompt"
	"github.com/MikeSquared-Agency/procstop/internal/session"
	"github.com/MikeSquared-Agency/procstop/internal/store"
)

var (
	ErrEmptyMessage        = errors.New("no message provided")
	ErrMissingUser         = errors.New("user id is required")
	ErrUnknownConversation = session.ErrUnknownConversation

	// ErrFeaturesUnavailable and ErrStoreUnavailable wrap failures of the
	// extractor and the document store.
	ErrFeaturesUnavailable = errors.New("feature extraction unavailable")
	ErrStoreUnavailable    = errors.New("conversation store unavailable")
)

// ConversationStore is the store surface the pipeline needs.
type ConversationStore interface {
	Insert(ctx context.Context, c store.Conversation) (string, error)
	Updater
}

// Publisher emits conversation events.
type Publisher interface {
	Publish(subject string, data any) error
}

// Service runs chat turns. Conversations are independent; turns on one
// conversation are serialised by the registry.
type Service struct {
	extractor extractor.Extractor
	completer completion.Completer
	store     ConversationStore
	persister *Persister
	registry  *session.Registry
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func New(ext extractor.Extractor, c completion.Completer, st ConversationStore, reg *session.Registry, logger *slog.Logger) *Service {
	return &Service{
		extractor: ext,
		completer: c,
		store:     st,
		persister: NewPersister(st),
		registry:  reg,
		logger:    logger,
		now:       time.Now,
	}
}

// SetPublisher enables conversation events.
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// Conversation is a newly opened conversation.
type Conversation struct {
	ID        string    `json:"conversation_id"`
	UserID    string    `json:"user_id"`
	Greeting  string    `json:"greeting"`
	StartTime time.Time `json:"start_time"`
}

// Reply is the outcome of one turn.
type Reply struct {
	ConversationID string                   `json:"conversation_id"`
	Text           string                   `json:"reply"`
	Mode           session.Mode             `json:"mode"`
	Turn           int                      `json:"turn"`
	Features       *extractor.FeatureRecord `json:"features"`
}

// Start inserts a conversation record and opens its context state.
func (s *Service) Start(ctx context.Context, userID string, p prompt.Profile) (*Conversation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUser
	}

	now := s.now()
	id, err := s.store.Insert(ctx, store.Conversation{UserID: userID, StartTime: now})
	if err != nil {
		return nil, fmt.Errorf("%w: insert conversation: %v", ErrStoreUnavailable, err)
	}

	st := session.NewState(id, userID, now)
	st.Gender = p.Gender
	st.Language = p.Language
	if err := s.registry.Start(st); err != nil {
		return nil, fmt.Errorf("register conversation: %w", err)
	}

	s.logger.Info("conversation started", "conversation_id", id, "user_id", userID)
	s.publish(hermes.SubjectConversationStarted, hermes.ConversationEvent{
		ConversationID: id,
		UserID:         userID,
		Timestamp:      now,
		Mode:           string(session.Exploratory),
	})

	return &Conversation{ID: id, UserID: userID, Greeting: prompt.Greeting(p.Language), StartTime: now}, nil
}

// Turn processes one user message. On any failure the context state and the
// stored record are left as they were before the call.
func (s *Service) Turn(ctx context.Context, conversationID, text string) (*Reply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	lease, err := s.registry.Acquire(conversationID)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	rec, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeaturesUnavailable, err)
	}
	rec.Normalize()

	prev := lease.State()
	next := prev.Clone()
	next.Update(rec)
	mode := session.ModeOf(next)
	ready := mode == session.RecommendationReady

	ins := prompt.Compose(next, ready, prompt.Profile{Gender: next.Gender, Language: next.Language})
	resp, err := s.completer.Complete(ctx, completion.Request{
		System:      ins.System,
		UserText:    text,
		MaxTokens:   ins.Params.MaxTokens,
		Stop:        ins.Params.Stop,
		Temperature: ins.Params.Temperature,
		TopP:        ins.Params.TopP,
	})
	if err != nil {
		s.logger.Warn("completion failed", "conversation_id", conversationID, "mode", mode, "error", err)
		return nil, fmt.Errorf("complete reply: %w", err)
	}

	now := s.now()
	if err := s.persister.Append(ctx, conversationID, text, resp.Text, rec, now); err != nil {
		return nil, fmt.Errorf("%w: persist turn: %v", ErrStoreUnavailable, err)
	}

	next.Turns++
	wasReady := session.Evaluate(prev)
	lease.Commit(next)

	s.logger.Info("turn processed",
		"conversation_id", conversationID,
		"user_id", next.UserID,
		"turn", next.Turns,
		"mode", mode,
		"emotions", len(rec.Emotion),
	)

	sentiment, _ := next.SentimentSummary()
	ev := hermes.ConversationEvent{
		ConversationID: conversationID,
		UserID:         next.UserID,
		Timestamp:      now,
		Mode:           string(mode),
		Turn:           next.Turns,
		Emotions:       rec.EmotionLabels(),
		Sentiment:      sentiment,
	}
	s.publish(hermes.SubjectConversationTurn, ev)
	if ready && !wasReady {
		s.publish(hermes.SubjectRecommendationReady, ev)
	}

	return &Reply{
		ConversationID: conversationID,
		Text:           resp.Text,
		Mode:           mode,
		Turn:           next.Turns,
		Features:       rec,
	}, nil
}

// End discards the conversation's context state. The stored record stays.
func (s *Service) End(_ context.Context, conversationID string) error {
	st, ok := s.registry.End(conversationID)
	if !ok {
		return ErrUnknownConversation
	}
	s.logger.Info("conversation ended", "conversation_id", conversationID, "turns", st.Turns)
	s.ended(st, "ended")
	return nil
}

// Evicted is the sweeper callback for idle conversations.
func (s *Service) Evicted(st *session.State) {
	s.ended(st, "idle")
}

// Active returns the number of open conversations.
func (s *Service) Active() int {
	return s.registry.Len()
}

func (s *Service) ended(st *session.State, reason string) {
	s.publish(hermes.SubjectConversationEnded, hermes.ConversationEvent{
		ConversationID: st.ConversationID,
		UserID:         st.UserID,
		Timestamp:      s.now(),
		Turn:           st.Turns,
		Reason:         reason,
	})
}

func (s *Service) publish(subject string, ev hermes.ConversationEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(subject, ev); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "conversation_id", ev.ConversationID, "error", err)
	}
}
