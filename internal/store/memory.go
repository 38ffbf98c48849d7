package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory keeps conversation records in process. It is used by tests and by
// `serve` when no DATABASE_URL is configured.
type Memory struct {
	mu    sync.Mutex
	docs  map[string]Document
	order []string
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]Document)}
}

// Find returns a snapshot of the user's conversations in insertion order.
func (m *Memory) Find(_ context.Context, userID string) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Document
	for _, id := range m.order {
		d := m.docs[id]
		if d.UserID() == userID {
			out = append(out, append(Document(nil), d...))
		}
	}
	return out, nil
}

// Get returns one conversation by id.
func (m *Memory) Get(_ context.Context, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append(Document(nil), d...), nil
}

func (m *Memory) Insert(_ context.Context, c Conversation) (string, error) {
	id := uuid.New().String()
	doc, err := newDocument(id, c)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = doc
	m.order = append(m.order, id)
	return id, nil
}

// Update applies u to the record; either all of it lands or none.
func (m *Memory) Update(_ context.Context, id string, u Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	next, err := Apply(d, u)
	if err != nil {
		return err
	}
	m.docs[id] = next
	return nil
}
