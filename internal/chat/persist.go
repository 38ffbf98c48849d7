package chat

import (
	"context"
	"time"

	"github.com/MikeSquared-Agency/procstop/internal/extractor"
	"github.com/MikeSquared-Agency/procstop/internal/store"
)

// Updater is the store surface the persister writes through.
type Updater interface {
	Update(ctx context.Context, id string, u store.Update) error
}

// Persister appends chat turns to conversation records.
type Persister struct {
	store Updater
}

func NewPersister(s Updater) *Persister {
	return &Persister{store: s}
}

// Append records one exchange: the message with its feature snapshot, the
// entity annotations, last_update and the duration, in a single update.
func (p *Persister) Append(ctx context.Context, conversationID, userText, botText string, rec *extractor.FeatureRecord, at time.Time) error {
	return p.store.Update(ctx, conversationID, BuildUpdate(userText, botText, rec, at))
}

// BuildUpdate renders the store update for one exchange.
func BuildUpdate(userText, botText string, rec *extractor.FeatureRecord, at time.Time) store.Update {
	if rec == nil {
		rec = &extractor.FeatureRecord{}
	}

	msg := map[string]any{
		"user_message": userText,
		"bot_message":  botText,
		"timestamp":    at.UTC().Format(time.RFC3339),
	}
	if len(rec.Emotion) > 0 {
		msg["emotions"] = rec.Emotion
	}
	snapshot := rec.ShortSentiment()
	if len(snapshot) > 0 {
		msg["sentiment"] = snapshot
	}
	if rec.Hate != nil {
		msg["hate"] = rec.Hate
	}
	if rec.Irony != nil {
		msg["irony"] = rec.Irony
	}

	push := map[string][]any{"messages": {msg}}
	for _, cat := range extractor.Categories {
		names := rec.Entities[cat]
		if len(names) == 0 {
			continue
		}
		pairs := make([]any, len(names))
		for i, n := range names {
			pairs[i] = []any{n, snapshot}
		}
		push["entities."+string(cat)] = pairs
	}

	return store.Update{Push: push, Touch: at}
}
