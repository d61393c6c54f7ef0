// Package cache provides a process-local TTL store with lazy eviction.
// It backs the wallet-scan result cache and the signal detector baselines;
// both keep the same key/expiry semantics, only the key shape differs.
package cache

import (
	"sync"
	"time"
)

// entry pairs a stored value with its lifetime. Entries are never mutated
// in place; a refresh replaces the whole entry.
type entry[V any] struct {
	value     V
	createdAt time.Time
	expiresAt time.Time
}

// Service is a mutex-guarded TTL cache. Expired entries are only removed
// when encountered during Get or during a Stats sweep, never on a timer.
type Service[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[V]

	hits      uint64
	misses    uint64
	evictions uint64

	now func() time.Time // injectable for tests
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Size      int    `json:"size"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	TTL       string `json:"ttl"`
}

// New creates a cache service with the given TTL.
func New[V any](ttl time.Duration) *Service[V] {
	return &Service[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *Service[V]) WithClock(now func() time.Time) *Service[V] {
	s.now = now
	return s
}

// Get returns the cached value and its age. A stale entry is evicted and
// reported as a miss.
func (s *Service[V]) Get(key string) (V, time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	e, ok := s.entries[key]
	if !ok {
		s.misses++
		return zero, 0, false
	}

	now := s.now()
	if !e.expiresAt.After(now) {
		delete(s.entries, key)
		s.evictions++
		s.misses++
		return zero, 0, false
	}

	s.hits++
	return e.value, now.Sub(e.createdAt), true
}

// Set stores a value under key with the configured TTL, replacing any
// previous entry.
func (s *Service[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.entries[key] = entry[V]{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(s.ttl),
	}
}

// Delete removes a single entry.
func (s *Service[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Clear drops all entries.
func (s *Service[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry[V])
}

// Len returns the number of entries, including any not yet swept.
func (s *Service[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats sweeps expired entries and returns counter values. The sweep is the
// maintenance path for entries that expired without ever being looked up.
func (s *Service[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !e.expiresAt.After(now) {
			delete(s.entries, key)
			s.evictions++
		}
	}

	return Stats{
		Size:      len(s.entries),
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		TTL:       s.ttl.String(),
	}
}
