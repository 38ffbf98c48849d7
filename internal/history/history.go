// Package history flattens a user's stored conversations into per-signal
// tables for aggregation.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/procstop/internal/extractor"
	"github.com/MikeSquared-Agency/procstop/internal/store"
	"github.com/tidwall/gjson"
)

type EmotionRow struct {
	Emotion string
	// Probability is the stored value as decoded (usually float64, possibly
	// string or nil); aggregation coerces it.
	Probability    any
	Timestamp      Timestamp
	ConversationID string
}

type SentimentRow struct {
	Positive       float64
	Negative       float64
	Neutral        float64
	Timestamp      Timestamp
	ConversationID string
}

type HateRow struct {
	Hateful        float64
	Targeted       float64
	Aggressive     float64
	Timestamp      Timestamp
	ConversationID string
}

type IronyRow struct {
	Ironic         float64
	NotIronic      float64
	Timestamp      Timestamp
	ConversationID string
}

type EntityRow struct {
	Category       string
	Entity         string
	SentimentPos   float64
	SentimentNeu   float64
	SentimentNeg   float64
	Timestamp      Timestamp
	ConversationID string
}

// Tables is the flattened history of one user.
type Tables struct {
	Emotions   []EmotionRow
	Sentiments []SentimentRow
	Hate       []HateRow
	Irony      []IronyRow
	Entities   []EntityRow

	Conversations int
	// Skipped counts malformed messages and entity entries that were dropped.
	Skipped int
}

// Empty reports whether no table has any row.
func (t *Tables) Empty() bool {
	return len(t.Emotions) == 0 && len(t.Sentiments) == 0 && len(t.Hate) == 0 &&
		len(t.Irony) == 0 && len(t.Entities) == 0
}

// Finder returns every conversation record of a user.
type Finder interface {
	Find(ctx context.Context, userID string) ([]store.Document, error)
}

// Extractor reads a user's history from the store. Reads are a snapshot; a
// turn appended concurrently may or may not be included.
type Extractor struct {
	finder Finder
	logger *slog.Logger
}

func New(f Finder, logger *slog.Logger) *Extractor {
	return &Extractor{finder: f, logger: logger}
}

// Extract loads and flattens the user's conversations. Only store failures
// are returned; malformed content is skipped and counted.
func (e *Extractor) Extract(ctx context.Context, userID string) (*Tables, error) {
	docs, err := e.finder.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find conversations: %w", err)
	}

	t := Flatten(docs)
	e.logger.Info("history extracted",
		"user_id", userID,
		"conversations", t.Conversations,
		"emotions", len(t.Emotions),
		"sentiments", len(t.Sentiments),
		"hate", len(t.Hate),
		"irony", len(t.Irony),
		"entities", len(t.Entities),
		"skipped", t.Skipped,
	)
	return t, nil
}

// Flatten turns conversation documents into tables, in document order.
func Flatten(docs []store.Document) *Tables {
	t := &Tables{}
	for _, d := range docs {
		if !gjson.ValidBytes(d) {
			t.Skipped++
			continue
		}
		t.Conversations++
		flattenConversation(t, gjson.ParseBytes(d))
	}
	return t
}

func flattenConversation(t *Tables, conv gjson.Result) {
	convID := conversationID(conv)
	start, hasStart := timestampOf(conv.Get("start_time"))

	messages := conv.Get("messages")
	if messages.Exists() && !messages.IsArray() {
		t.Skipped++
	}
	if messages.IsArray() {
		for _, m := range messages.Array() {
			if !m.IsObject() {
				t.Skipped++
				continue
			}
			ts, ok := timestampOf(m.Get("timestamp"))
			if !ok {
				ts, ok = start, hasStart
			}
			if !ok {
				t.Skipped++
				continue
			}
			flattenMessage(t, m, ts, convID)
		}
	}

	// Entity entries carry no time of their own, so every row is stamped with
	// the conversation start; since/last are conversation times, not mention
	// times.
	entityTS, ok := start, hasStart
	if !ok {
		entityTS, ok = timestampOf(conv.Get("last_update"))
	}
	conv.Get("entities").ForEach(func(category, entries gjson.Result) bool {
		if !entries.IsArray() {
			t.Skipped++
			return true
		}
		for _, entry := range entries.Array() {
			row, valid := entityRow(strings.TrimSpace(category.String()), entry)
			if !valid || !ok {
				t.Skipped++
				continue
			}
			row.Timestamp = entityTS
			row.ConversationID = convID
			t.Entities = append(t.Entities, row)
		}
		return true
	})
}

func flattenMessage(t *Tables, m gjson.Result, ts Timestamp, convID string) {
	if emotions := m.Get("emotions"); emotions.IsObject() {
		emotions.ForEach(func(label, prob gjson.Result) bool {
			t.Emotions = append(t.Emotions, EmotionRow{
				Emotion:        label.String(),
				Probability:    prob.Value(),
				Timestamp:      ts,
				ConversationID: convID,
			})
			return true
		})
	}

	if s := m.Get("sentiment"); s.IsObject() {
		t.Sentiments = append(t.Sentiments, SentimentRow{
			Positive:       first(s, "POS", "Positive").Float(),
			Negative:       first(s, "NEG", "Negative").Float(),
			Neutral:        first(s, "NEU", "Neutral").Float(),
			Timestamp:      ts,
			ConversationID: convID,
		})
	}

	if h := m.Get("hate"); nonEmptyObject(h) {
		t.Hate = append(t.Hate, HateRow{
			Hateful:        h.Get("hateful").Float(),
			Targeted:       h.Get("targeted").Float(),
			Aggressive:     h.Get("aggressive").Float(),
			Timestamp:      ts,
			ConversationID: convID,
		})
	}

	if i := m.Get("irony"); nonEmptyObject(i) {
		t.Irony = append(t.Irony, IronyRow{
			Ironic:         i.Get("ironic").Float(),
			NotIronic:      first(i, "not_ironic", "not ironic").Float(),
			Timestamp:      ts,
			ConversationID: convID,
		})
	}
}

// entityRow reads one [name, {POS, NEU, NEG}] entry. Categories outside the
// closed entity set are rejected.
func entityRow(category string, entry gjson.Result) (EntityRow, bool) {
	if !entry.IsArray() {
		return EntityRow{}, false
	}
	parts := entry.Array()
	if len(parts) != 2 || parts[0].Type != gjson.String || !parts[1].IsObject() {
		return EntityRow{}, false
	}
	name := strings.TrimSpace(parts[0].Str)
	if name == "" || !extractor.Category(category).Valid() {
		return EntityRow{}, false
	}
	s := parts[1]
	return EntityRow{
		Category:     category,
		Entity:       name,
		SentimentPos: first(s, "POS", "Positive").Float(),
		SentimentNeu: first(s, "NEU", "Neutral").Float(),
		SentimentNeg: first(s, "NEG", "Negative").Float(),
	}, true
}

func conversationID(conv gjson.Result) string {
	if id := conv.Get("conversation_id"); id.Exists() && id.String() != "" {
		return id.String()
	}
	id := conv.Get("_id")
	if oid := id.Get("$oid"); oid.Exists() {
		return oid.String()
	}
	return id.String()
}

// first returns the first of keys present on obj.
func first(obj gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if r := obj.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func nonEmptyObject(r gjson.Result) bool {
	if !r.IsObject() {
		return false
	}
	empty := true
	r.ForEach(func(_, _ gjson.Result) bool {
		empty = false
		return false
	})
	return !empty
}
