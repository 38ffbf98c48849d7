package session

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrUnknownConversation = errors.New("unknown conversation")
	ErrConversationExists  = errors.New("conversation already active")
)

// Registry owns the State of every active conversation, keyed by
// conversation id. Turns on the same conversation are serialised through a
// per-entry lock; different conversations never wait on each other.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

type entry struct {
	mu       sync.Mutex // held for a whole turn
	state    *State
	lastSeen time.Time
	ended    bool
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry), now: time.Now}
}

// Start registers the state of a new conversation.
func (r *Registry) Start(s *State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[s.ConversationID]; ok {
		return ErrConversationExists
	}
	r.entries[s.ConversationID] = &entry{state: s, lastSeen: r.now()}
	return nil
}

// Lease is exclusive access to one conversation for the duration of a turn.
type Lease struct {
	r *Registry
	e *entry
}

// Acquire locks the conversation. The caller must Release the lease.
func (r *Registry) Acquire(id string) (*Lease, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrUnknownConversation
	}

	e.mu.Lock()
	if e.ended {
		e.mu.Unlock()
		return nil, ErrUnknownConversation
	}
	return &Lease{r: r, e: e}, nil
}

// State returns the committed state. Callers mutate a Clone and Commit it.
func (l *Lease) State() *State { return l.e.state }

// Commit replaces the committed state.
func (l *Lease) Commit(s *State) {
	l.e.state = s
}

// Release unlocks the conversation and marks it active.
func (l *Lease) Release() {
	l.e.lastSeen = l.r.now()
	l.e.mu.Unlock()
}

// End discards the conversation state, waiting for an in-flight turn.
func (r *Registry) End(id string) (*State, bool) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	e.ended = true
	s := e.state
	e.mu.Unlock()
	return s, true
}

// Sweep discards conversations idle for longer than idle and returns their
// final states. Conversations in the middle of a turn are left alone.
func (r *Registry) Sweep(idle time.Duration) []*State {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []*State
	for id, e := range r.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastSeen.Before(cutoff) {
			e.ended = true
			delete(r.entries, id)
			evicted = append(evicted, e.state)
		}
		e.mu.Unlock()
	}
	return evicted
}

// Len returns the number of active conversations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
