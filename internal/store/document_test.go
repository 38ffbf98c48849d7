package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

var start = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func TestNewDocument(t *testing.T) {
	doc, err := newDocument("c1", Conversation{UserID: "u1", StartTime: start})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "c1" || doc.UserID() != "u1" {
		t.Errorf("unexpected identity: %s", doc)
	}
	for _, path := range []string{"messages", "entities.people", "entities.places", "entities.orgs", "entities.others"} {
		if r := gjson.GetBytes(doc, path); !r.IsArray() || len(r.Array()) != 0 {
			t.Errorf("%s: expected empty array, got %s", path, r.Raw)
		}
	}
	if r := gjson.GetBytes(doc, "last_update"); r.Type != gjson.Null {
		t.Errorf("expected null last_update, got %s", r.Raw)
	}
}

func TestApply_PushSetTouch(t *testing.T) {
	doc, _ := newDocument("c1", Conversation{UserID: "u1", StartTime: start})

	next, err := Apply(doc, Update{
		Push: map[string][]any{
			"messages":        {map[string]any{"user_message": "hola", "bot_message": "¿qué tal?"}},
			"entities.people": {[]any{"Ana", map[string]float64{"POS": 0.9}}, []any{"Luis", map[string]float64{"POS": 0.9}}},
		},
		Touch: start.Add(7*time.Minute + 59*time.Second),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if got := gjson.GetBytes(next, "messages.#").Int(); got != 1 {
		t.Errorf("expected 1 message, got %d", got)
	}
	if got := gjson.GetBytes(next, "messages.0.user_message").String(); got != "hola" {
		t.Errorf("unexpected user_message %q", got)
	}
	if got := gjson.GetBytes(next, "entities.people.1.0").String(); got != "Luis" {
		t.Errorf("expected Luis second, got %q", got)
	}
	if got := gjson.GetBytes(next, "duration_minutes").Int(); got != 7 {
		t.Errorf("expected 7 minutes, got %d", got)
	}
	if got := gjson.GetBytes(next, "last_update").String(); got != "2024-05-10T09:07:59Z" {
		t.Errorf("unexpected last_update %q", got)
	}

	// The input document is left as it was.
	if gjson.GetBytes(doc, "messages.#").Int() != 0 {
		t.Error("Apply modified its input")
	}
}

func TestApply_DurationNeverDecreases(t *testing.T) {
	doc, _ := newDocument("c1", Conversation{UserID: "u1", StartTime: start})
	doc, _ = Apply(doc, Update{Set: map[string]any{"duration_minutes": 30}})

	next, err := Apply(doc, Update{Touch: start.Add(5 * time.Minute)})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := gjson.GetBytes(next, "duration_minutes").Int(); got != 30 {
		t.Errorf("expected duration to stay 30, got %d", got)
	}
}

func TestApply_CreatesMissingArray(t *testing.T) {
	doc := Document(`{"conversation_id":"c1"}`)
	next, err := Apply(doc, Update{Push: map[string][]any{"entities.others": {"x"}}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := gjson.GetBytes(next, "entities.others.0").String(); got != "x" {
		t.Errorf("expected pushed value, got %s", next)
	}
}

func TestApply_PushOntoScalarFails(t *testing.T) {
	doc := Document(`{"messages":"oops"}`)
	if _, err := Apply(doc, Update{Push: map[string][]any{"messages": {"x"}}}); err == nil {
		t.Error("expected error pushing onto a scalar")
	}
}

func TestMemory_InsertFindUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id1, _ := m.Insert(ctx, Conversation{UserID: "u1", StartTime: start})
	m.Insert(ctx, Conversation{UserID: "u2", StartTime: start})
	id3, _ := m.Insert(ctx, Conversation{UserID: "u1", StartTime: start.Add(time.Hour)})

	docs, err := m.Find(ctx, "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(docs) != 2 || docs[0].ID() != id1 || docs[1].ID() != id3 {
		t.Fatalf("expected u1 conversations in insertion order, got %d", len(docs))
	}

	if err := m.Update(ctx, id1, Update{Push: map[string][]any{"messages": {"m"}}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := m.Get(ctx, id1)
	if gjson.GetBytes(got, "messages.#").Int() != 1 {
		t.Errorf("expected pushed message, got %s", got)
	}

	// Snapshot from before the update is unaffected.
	if gjson.GetBytes(docs[0], "messages.#").Int() != 0 {
		t.Error("Find returned a live reference")
	}

	if docs, _ := m.Find(ctx, "nobody"); len(docs) != 0 {
		t.Errorf("expected no documents, got %d", len(docs))
	}
}

func TestMemory_UpdateUnknown(t *testing.T) {
	m := NewMemory()
	if err := m.Update(context.Background(), "missing", Update{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := m.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_FailedUpdateLeavesRecord(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id, _ := m.Insert(ctx, Conversation{UserID: "u1", StartTime: start})
	m.Update(ctx, id, Update{Set: map[string]any{"broken": "scalar"}})

	err := m.Update(ctx, id, Update{
		Push: map[string][]any{"messages": {"m"}, "broken": {"x"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	got, _ := m.Get(ctx, id)
	if gjson.GetBytes(got, "messages.#").Int() != 0 {
		t.Error("partial update was stored")
	}
}

func TestMemory_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a, _ := m.Insert(ctx, Conversation{UserID: "u1", StartTime: start})
	b, _ := m.Insert(ctx, Conversation{UserID: "u2", StartTime: start})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		for _, id := range []string{a, b} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				m.Update(ctx, id, Update{Push: map[string][]any{"messages": {"m"}}})
			}(id)
		}
	}
	wg.Wait()

	for _, id := range []string{a, b} {
		got, _ := m.Get(ctx, id)
		if n := gjson.GetBytes(got, "messages.#").Int(); n != 20 {
			t.Errorf("%s: expected 20 messages, got %d", id, n)
		}
	}
}
