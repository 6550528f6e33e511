// Package limiter provides per-actor request rate limiting with
// interchangeable single-instance and Redis-backed stores.
package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Policy defines the per-actor budget.
type Policy struct {
	// RPM is the sustained request rate per minute.
	RPM int
	// Burst is the bucket capacity.
	Burst int
}

// Store abstracts the storage for rate limiting buckets.
type Store interface {
	// Allow checks if the actor may perform an action costing 'cost'
	// tokens. Returns true if allowed, false if rate limited.
	Allow(ctx context.Context, actorID string, policy Policy, cost int) (bool, error)
}

// MemoryStore keeps one token bucket per actor in process memory. Suitable
// for single-instance deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*rate.Limiter)}
}

func (s *MemoryStore) Allow(ctx context.Context, actorID string, policy Policy, cost int) (bool, error) {
	s.mu.Lock()
	lim, ok := s.buckets[actorID]
	if !ok {
		perSec := rate.Limit(float64(policy.RPM) / 60.0)
		if perSec <= 0 {
			perSec = 1
		}
		lim = rate.NewLimiter(perSec, policy.Burst)
		s.buckets[actorID] = lim
	}
	s.mu.Unlock()

	return lim.AllowN(time.Now(), cost), nil
}
