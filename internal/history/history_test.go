package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/procstop/internal/store"
	"github.com/tidwall/gjson"
)

const conversationDoc = `{
	"conversation_id": "c1",
	"user_id": "ana",
	"start_time": "2024-05-10T09:00:00Z",
	"last_update": "2024-05-10T09:20:00Z",
	"messages": [
		{
			"user_message": "hola",
			"bot_message": "hey",
			"timestamp": "2024-05-10T09:05:00Z",
			"emotions": {"joy": 0.7, "neutral": "0.3"},
			"sentiment": {"POS": 0.6, "NEU": 0.3},
			"hate": {"hateful": 0.1, "targeted": 0.0, "aggressive": 0.2},
			"irony": {"ironic": 0.2, "not ironic": 0.8}
		},
		{
			"user_message": "sin timestamp",
			"bot_message": "vale",
			"sentiment": {"Positive": 0.1, "Negative": 0.7, "Neutral": 0.2},
			"hate": {},
			"irony": {"ironic": 0.4, "not_ironic": 0.6}
		}
	],
	"entities": {
		"people": [["Ana", {"POS": 0.6, "NEU": 0.3, "NEG": 0.1}], ["Luis"], ["Marta", "positivo"]],
		"places": [["Madrid", {"POS": 0.2}]],
		"orgs": [],
		"others": []
	}
}`

func TestFlatten(t *testing.T) {
	tables := Flatten([]store.Document{store.Document(conversationDoc)})

	if tables.Conversations != 1 {
		t.Errorf("expected 1 conversation, got %d", tables.Conversations)
	}

	if len(tables.Emotions) != 2 {
		t.Fatalf("expected 2 emotion rows, got %d", len(tables.Emotions))
	}
	e := tables.Emotions[0]
	if e.Emotion != "joy" || e.Probability != 0.7 || e.ConversationID != "c1" {
		t.Errorf("unexpected emotion row %+v", e)
	}
	if tables.Emotions[1].Probability != "0.3" {
		t.Errorf("expected raw string probability carried through, got %#v", tables.Emotions[1].Probability)
	}

	if len(tables.Sentiments) != 2 {
		t.Fatalf("expected 2 sentiment rows, got %d", len(tables.Sentiments))
	}
	s := tables.Sentiments[0]
	if s.Positive != 0.6 || s.Neutral != 0.3 || s.Negative != 0 {
		t.Errorf("unexpected sentiment row %+v", s)
	}
	if tables.Sentiments[1].Negative != 0.7 {
		t.Errorf("expected long sentiment keys read, got %+v", tables.Sentiments[1])
	}
	// Missing message timestamp falls back to start_time.
	if got := tables.Sentiments[1].Timestamp.Time; !got.Equal(time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("expected start_time fallback, got %v", got)
	}

	if len(tables.Hate) != 1 || tables.Hate[0].Aggressive != 0.2 {
		t.Errorf("expected one hate row (empty hate skipped), got %+v", tables.Hate)
	}

	if len(tables.Irony) != 2 || tables.Irony[0].NotIronic != 0.8 || tables.Irony[1].NotIronic != 0.6 {
		t.Errorf("unexpected irony rows %+v", tables.Irony)
	}

	if len(tables.Entities) != 2 {
		t.Fatalf("expected 2 entity rows, got %+v", tables.Entities)
	}
	ana := tables.Entities[0]
	if ana.Category != "people" || ana.Entity != "Ana" || ana.SentimentPos != 0.6 || ana.SentimentNeg != 0.1 {
		t.Errorf("unexpected entity row %+v", ana)
	}
	if madrid := tables.Entities[1]; madrid.SentimentNeu != 0 || madrid.Category != "places" {
		t.Errorf("expected missing keys as 0, got %+v", madrid)
	}
	if tables.Skipped != 2 {
		t.Errorf("expected 2 malformed entity entries skipped, got %d", tables.Skipped)
	}
}

func TestFlatten_ZeroConversations(t *testing.T) {
	tables := Flatten(nil)
	if !tables.Empty() {
		t.Error("expected empty tables")
	}
	if len(tables.Emotions)+len(tables.Sentiments)+len(tables.Hate)+len(tables.Irony)+len(tables.Entities) != 0 {
		t.Error("expected five empty tables")
	}
}

func TestFlatten_MessageWithoutAnyTimestamp(t *testing.T) {
	doc := `{"conversation_id":"c2","messages":[{"emotions":{"joy":1}},{"timestamp":"2024-01-02","emotions":{"anger":1}}],"entities":{}}`
	tables := Flatten([]store.Document{store.Document(doc)})
	if len(tables.Emotions) != 1 || tables.Emotions[0].Emotion != "anger" {
		t.Errorf("expected only the timestamped message, got %+v", tables.Emotions)
	}
	if tables.Skipped != 1 {
		t.Errorf("expected 1 skipped message, got %d", tables.Skipped)
	}
}

func TestFlatten_MalformedDocuments(t *testing.T) {
	docs := []store.Document{
		store.Document(`not json`),
		store.Document(`{"conversation_id":"c3","start_time":"2024-01-01T00:00:00Z","messages":"oops","entities":{"people":"oops"}}`),
		store.Document(`{"_id":{"$oid":"65f0"},"start_time":{"$date":"2024-03-01T10:00:00Z"},"messages":[42,{"emotions":{"fear":0.5}}]}`),
		store.Document(`{"conversation_id":"c5","start_time":"2024-01-01T00:00:00Z","entities":{"people":[["Ana",{"POS":0.9}]],"foo":[["Zed",{}]]}}`),
	}
	tables := Flatten(docs)

	if tables.Conversations != 3 {
		t.Errorf("expected 3 readable conversations, got %d", tables.Conversations)
	}
	// not json, messages scalar, entities.people scalar, message 42, category foo
	if tables.Skipped != 5 {
		t.Errorf("expected 5 skipped, got %d", tables.Skipped)
	}
	if len(tables.Entities) != 1 || tables.Entities[0].Category != "people" {
		t.Fatalf("expected only the people entity, got %+v", tables.Entities)
	}
	if got := tables.Entities[0].Timestamp.Time; !got.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected entity stamped with conversation start, got %v", got)
	}
	if len(tables.Emotions) != 1 {
		t.Fatalf("expected 1 emotion row, got %d", len(tables.Emotions))
	}
	row := tables.Emotions[0]
	if row.ConversationID != "65f0" {
		t.Errorf("expected $oid conversation id, got %q", row.ConversationID)
	}
	if !row.Timestamp.Valid || row.Timestamp.Time.Month() != time.March {
		t.Errorf("expected $date unwrapped, got %+v", row.Timestamp)
	}
}

func TestFlatten_EntitiesUseLastUpdateWithoutStart(t *testing.T) {
	doc := `{"conversation_id":"c4","last_update":"2024-06-01 12:00:00","entities":{"orgs":[["Google",{"POS":0.9}]]}}`
	tables := Flatten([]store.Document{store.Document(doc)})
	if len(tables.Entities) != 1 {
		t.Fatalf("expected 1 entity row, got %d", len(tables.Entities))
	}
	if got := tables.Entities[0].Timestamp.Time; !got.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", got)
	}
}

func TestTimestampOf_Epoch(t *testing.T) {
	want := time.Date(2024, 5, 10, 9, 5, 0, 0, time.UTC)
	tests := []struct {
		name string
		raw  string
	}{
		{"seconds", `1715331900`},
		{"milliseconds", `1715331900000`},
		{"seconds string", `"1715331900"`},
		{"milliseconds string", `"1715331900000"`},
		{"numberLong", `{"$numberLong":"1715331900000"}`},
		{"date wrapping millis", `{"$date":1715331900000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := timestampOf(gjson.Parse(tt.raw))
			if !ok || !ts.Valid || !ts.Time.Equal(want) {
				t.Errorf("timestampOf(%s) = %+v, %v; want %v", tt.raw, ts, ok, want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
		want  time.Time
	}{
		{"2024-05-10T09:05:00Z", true, time.Date(2024, 5, 10, 9, 5, 0, 0, time.UTC)},
		{"2024-05-10T11:05:00+02:00", true, time.Date(2024, 5, 10, 9, 5, 0, 0, time.UTC)},
		{"2024-05-10 09:05:00", true, time.Date(2024, 5, 10, 9, 5, 0, 0, time.UTC)},
		{"2024-05-10 09:05:00.123456", true, time.Date(2024, 5, 10, 9, 5, 0, 123456000, time.UTC)},
		{"10/05/2024 09:05:00", true, time.Date(2024, 5, 10, 9, 5, 0, 0, time.UTC)},
		{"2024-05-10", true, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)},
		{"yesterday", false, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseTimestamp(tt.raw)
			if got.Valid != tt.valid || !got.Time.Equal(tt.want) || got.Raw != tt.raw {
				t.Errorf("ParseTimestamp(%q) = %+v", tt.raw, got)
			}
		})
	}
}

type fakeFinder struct {
	docs []store.Document
	err  error
}

func (f fakeFinder) Find(context.Context, string) ([]store.Document, error) {
	return f.docs, f.err
}

func TestExtractor(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	tables, err := New(fakeFinder{docs: []store.Document{store.Document(conversationDoc)}}, logger).Extract(context.Background(), "ana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables.Emotions) != 2 {
		t.Errorf("expected 2 emotion rows, got %d", len(tables.Emotions))
	}

	_, err = New(fakeFinder{err: errors.New("db down")}, logger).Extract(context.Background(), "ana")
	if err == nil {
		t.Error("expected store error to propagate")
	}
}

func TestExtractor_MemoryStore(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	id, _ := m.Insert(ctx, store.Conversation{UserID: "ana", StartTime: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)})
	m.Update(ctx, id, store.Update{Push: map[string][]any{
		"messages":        {map[string]any{"timestamp": "2024-05-10T09:01:00Z", "emotions": map[string]float64{"joy": 1}}},
		"entities.people": {[]any{"Ana", map[string]float64{"POS": 1}}},
	}})

	tables, err := New(m, slog.New(slog.NewJSONHandler(io.Discard, nil))).Extract(ctx, "ana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables.Emotions) != 1 || len(tables.Entities) != 1 || tables.Entities[0].ConversationID != id {
		t.Errorf("unexpected tables %+v", tables)
	}
}
