package memory

import (
	"context"
	"sort"
	"sync"

	"swaperex-scan/internal/domain"
	"swaperex-scan/internal/storage"
)

// ScanEventStore is an in-memory implementation of storage.ScanEventStore.
type ScanEventStore struct {
	mu     sync.RWMutex
	events []*domain.ScanEvent
}

// NewScanEventStore creates a new in-memory scan event store.
func NewScanEventStore() *ScanEventStore {
	return &ScanEventStore{}
}

// Insert appends an event.
func (s *ScanEventStore) Insert(_ context.Context, e *domain.ScanEvent) error {
	if e == nil || e.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eventCopy := *e
	s.events = append(s.events, &eventCopy)
	return nil
}

// GetByWallet returns events for a wallet, newest first.
func (s *ScanEventStore) GetByWallet(_ context.Context, chainID int64, wallet string, limit int) ([]*domain.ScanEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScanEvent
	for _, e := range s.events {
		if e.ChainID == chainID && e.Wallet == wallet {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt > result[j].CreatedAt
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.ScanEventStore = (*ScanEventStore)(nil)
