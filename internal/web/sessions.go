package web

import (
	"context"
	"sync"
	"time"

	"github.com/JonMunkholm/lexconv/internal/lexicon"
)

// SessionStore keeps each browser's conversion session in memory. Values are
// replaced wholesale; nothing is merged. Sessions idle for longer than the
// TTL are dropped.
type SessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items map[string]*storedSession
}

type storedSession struct {
	sess    lexicon.Session
	touched time.Time
}

// NewSessionStore creates a store with the given idle TTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]*storedSession),
	}
}

// Get returns the session for id and refreshes its idle timer.
func (s *SessionStore) Get(id string) (lexicon.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return lexicon.Session{}, false
	}
	now := s.now()
	if now.Sub(item.touched) > s.ttl {
		delete(s.items, id)
		return lexicon.Session{}, false
	}
	item.touched = now
	return item.sess, true
}

// Put stores sess under id, replacing any previous value.
func (s *SessionStore) Put(id string, sess lexicon.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = &storedSession{sess: sess, touched: s.now()}
}

// Delete discards the session for id.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// Len returns the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, item := range s.items {
		if now.Sub(item.touched) > s.ttl {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until ctx ends.
func (s *SessionStore) Run(ctx context.Context) {
	interval := s.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
