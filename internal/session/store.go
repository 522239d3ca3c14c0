// Package session keeps in-progress booking flows keyed by an opaque id the
// storefront holds between requests.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/glowupstudio/booking-platform/internal/booking"
	"github.com/glowupstudio/booking-platform/pkg/logging"
)

const defaultTTL = 30 * time.Minute

// Store holds live flows in memory. Flows carry mutexes and in-flight fetch
// state, so they stay in process rather than in Redis; an idle session is
// simply evicted and the visitor starts over.
type Store struct {
	ttl    time.Duration
	logger *logging.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	flow      *booking.Flow
	expiresAt time.Time
}

// NewStore creates a session store with the given idle TTL.
func NewStore(ttl time.Duration, logger *logging.Logger) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		ttl:      ttl,
		logger:   logger.Component("session"),
		sessions: make(map[string]*entry),
	}
}

// Create stores a flow and returns its session id.
func (s *Store) Create(flow *booking.Flow) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &entry{flow: flow, expiresAt: time.Now().Add(s.ttl)}
	return id
}

// Get returns the flow for a session id and extends its TTL. Expired
// sessions behave as absent.
func (s *Store) Get(id string) (*booking.Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(s.sessions, id)
		return nil, false
	}
	e.expiresAt = time.Now().Add(s.ttl)
	return e.flow, true
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of sessions, expired ones included until swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.sessions {
		if now.After(e.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs periodic eviction until the context is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("expired sessions evicted", "count", n)
			}
		}
	}
}
