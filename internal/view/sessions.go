package view

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions keeps one Form per browser session, expiring idle ones.
type Sessions struct {
	mu       sync.Mutex
	ttl      time.Duration
	analyzer Analyzer
	now      func() time.Time
	data     map[string]*sessionEntry
}

type sessionEntry struct {
	form      *Form
	expiresAt time.Time
}

// NewSessions creates a store whose forms submit to a. A non-positive ttl means 30 minutes.
func NewSessions(a Analyzer, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Sessions{
		ttl:      ttl,
		analyzer: a,
		now:      time.Now,
		data:     make(map[string]*sessionEntry),
	}
}

// Get returns the form for id, creating a new session when id is unknown or
// expired. The returned id is the one the caller must keep using.
func (s *Sessions) Get(id string) (string, *Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()

	now := s.now()
	if entry, ok := s.data[id]; ok && id != "" {
		entry.expiresAt = now.Add(s.ttl)
		return id, entry.form
	}

	id = uuid.NewString()
	form := NewForm(s.analyzer)
	s.data[id] = &sessionEntry{form: form, expiresAt: now.Add(s.ttl)}
	return id, form
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()
	return len(s.data)
}

func (s *Sessions) cleanupLocked() {
	now := s.now()
	for k, v := range s.data {
		// A loading form is still owned by its request.
		if now.After(v.expiresAt) && !v.form.Snapshot().Loading() {
			delete(s.data, k)
		}
	}
}
