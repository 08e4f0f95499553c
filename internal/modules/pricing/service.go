// README: Pricing service caches the loaded snapshot with a short TTL.
package pricing

import (
	"context"
	"sync"
	"time"
)

type Service struct {
	store *Store
	ttl   time.Duration

	mu       sync.RWMutex
	snap     *Snapshot
	loadedAt time.Time
}

func NewService(store *Store, ttl time.Duration) *Service {
	return &Service{store: store, ttl: ttl}
}

// Snapshot returns the cached snapshot, reloading it once the TTL has passed.
// The returned snapshot is shared and must be treated as read-only.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	if s.snap != nil && time.Since(s.loadedAt) < s.ttl {
		snap := s.snap
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil && time.Since(s.loadedAt) < s.ttl {
		return s.snap, nil
	}
	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		if s.snap != nil {
			// A stale snapshot beats no pricing at all.
			return s.snap, nil
		}
		return nil, err
	}
	s.snap = snap
	s.loadedAt = time.Now()
	return snap, nil
}

// Refresh forces the next Snapshot call to reload.
func (s *Service) Refresh() {
	s.mu.Lock()
	s.loadedAt = time.Time{}
	s.mu.Unlock()
}
