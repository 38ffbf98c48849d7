package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var ErrNotFound = errors.New("conversation not found")

// Document is the raw JSON of one conversation record.
type Document []byte

// ID returns the conversation_id field.
func (d Document) ID() string {
	return gjson.GetBytes(d, "conversation_id").String()
}

// UserID returns the user_id field.
func (d Document) UserID() string {
	return gjson.GetBytes(d, "user_id").String()
}

// Conversation describes a record to insert.
type Conversation struct {
	UserID    string
	StartTime time.Time
}

// newDocument renders the initial record: no messages, an empty log per
// entity category and no last update.
func newDocument(id string, c Conversation) (Document, error) {
	doc := map[string]any{
		"conversation_id": id,
		"user_id":         c.UserID,
		"messages":        []any{},
		"entities": map[string][]any{
			"people": {},
			"places": {},
			"orgs":   {},
			"others": {},
		},
		"start_time":       c.StartTime.UTC().Format(time.RFC3339Nano),
		"last_update":      nil,
		"duration_minutes": 0,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal conversation: %w", err)
	}
	return b, nil
}

// Update is one atomic change to a conversation record. Paths are dotted
// (e.g. "entities.people").
type Update struct {
	// Push appends values to the array at each path, creating it if absent.
	Push map[string][]any
	// Set overwrites the field at each path.
	Set map[string]any
	// Touch, when non-zero, sets last_update and raises duration_minutes to
	// the whole minutes elapsed since start_time.
	Touch time.Time
}

// Apply returns doc with u applied. doc is never modified; on error the
// caller keeps the original.
func Apply(doc Document, u Update) (Document, error) {
	out := append(Document(nil), doc...)
	var err error

	for _, path := range slices.Sorted(maps.Keys(u.Push)) {
		cur := gjson.GetBytes(out, path)
		if !cur.Exists() || cur.Type == gjson.Null {
			if out, err = sjson.SetBytes(out, path, []any{}); err != nil {
				return nil, fmt.Errorf("create %s: %w", path, err)
			}
		} else if !cur.IsArray() {
			return nil, fmt.Errorf("push %s: field is not an array", path)
		}
		for _, v := range u.Push[path] {
			if out, err = sjson.SetBytes(out, path+".-1", v); err != nil {
				return nil, fmt.Errorf("push %s: %w", path, err)
			}
		}
	}

	for _, path := range slices.Sorted(maps.Keys(u.Set)) {
		if out, err = sjson.SetBytes(out, path, u.Set[path]); err != nil {
			return nil, fmt.Errorf("set %s: %w", path, err)
		}
	}

	if !u.Touch.IsZero() {
		if out, err = touch(out, u.Touch); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func touch(doc Document, at time.Time) (Document, error) {
	minutes := gjson.GetBytes(doc, "duration_minutes").Int()
	if raw := gjson.GetBytes(doc, "start_time").String(); raw != "" {
		start, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("parse start_time: %w", err)
		}
		if elapsed := int64(at.Sub(start) / time.Minute); elapsed > minutes {
			minutes = elapsed
		}
	}

	doc, err := sjson.SetBytes(doc, "last_update", at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("set last_update: %w", err)
	}
	doc, err = sjson.SetBytes(doc, "duration_minutes", minutes)
	if err != nil {
		return nil, fmt.Errorf("set duration_minutes: %w", err)
	}
	return doc, nil
}
