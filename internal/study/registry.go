package study

import (
	"sync"
	"time"
)

// Key identifies the page a session belongs to: one visitor looking at one set.
type Key struct {
	Visitor string
	SetID   int64
}

// Entry is a live session together with the page it renders into.
type Entry struct {
	Session  *Session
	Page     *PageState
	lastSeen time.Time
}

// Registry keeps one study session per visitor and set in memory.
// All access to an entry happens under the registry lock.
type Registry struct {
	mu      sync.Mutex
	entries map[Key]*Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewRegistry creates a registry that drops sessions idle for longer than ttl.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		entries: make(map[Key]*Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Start replaces any session for key with a fresh one over deck. This is
// what a page load does: the previous session is discarded.
func (r *Registry) Start(key Key, deck []Card) {
	page := NewPageState()
	entry := &Entry{
		Session: NewSession(deck, page),
		Page:    page,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	entry.lastSeen = r.now()
	r.entries[key] = entry
}

// Do runs fn on the entry for key and reports whether one existed.
func (r *Registry) Do(key Key, fn func(e *Entry)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok {
		return false
	}
	entry.lastSeen = r.now()
	fn(entry)
	return true
}

// StartAndDo is Start followed by Do, under one lock.
func (r *Registry) StartAndDo(key Key, deck []Card, fn func(e *Entry)) {
	page := NewPageState()
	entry := &Entry{
		Session: NewSession(deck, page),
		Page:    page,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	entry.lastSeen = r.now()
	r.entries[key] = entry
	fn(entry)
}

// Forget drops the session for key.
func (r *Registry) Forget(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep removes sessions idle past the TTL and returns how many it removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for key, entry := range r.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(r.entries, key)
			removed++
		}
	}
	return removed
}
