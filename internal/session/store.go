package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store keeps sessions in memory and evicts those idle for longer than ttl.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*State
}

// NewStore creates an empty Store.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*State),
	}
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// Add registers st.
func (s *Store) Add(st *State) {
	st.touch(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[st.ID] = st
}

// Get returns the session and marks it as active.
func (s *Store) Get(id string) (*State, bool) {
	s.mu.Lock()
	st, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	now := s.now()
	if st.idleSince(now) > s.ttl {
		s.Delete(id)
		return nil, false
	}
	st.touch(now)
	return st, true
}

// Delete removes the session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// evict removes sessions idle for longer than ttl and returns their count.
func (s *Store) evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, st := range s.sessions {
		if st.idleSince(now) > s.ttl {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Run evicts idle sessions every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	lg := zctx.From(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.evict(s.now()); n > 0 {
				lg.Info("Evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}
