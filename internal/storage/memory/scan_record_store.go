// Package memory provides in-memory store implementations, used when no
// database DSN is configured and throughout the test suite.
package memory

import (
	"context"
	"sort"
	"sync"

	"swaperex-scan/internal/domain"
	"swaperex-scan/internal/storage"
)

// ScanRecordStore is an in-memory implementation of storage.ScanRecordStore.
type ScanRecordStore struct {
	mu      sync.RWMutex
	records []*domain.ScanRecord
}

// NewScanRecordStore creates a new in-memory scan record store.
func NewScanRecordStore() *ScanRecordStore {
	return &ScanRecordStore{}
}

// Insert appends a record.
func (s *ScanRecordStore) Insert(_ context.Context, r *domain.ScanRecord) error {
	if r == nil || r.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	recordCopy := *r
	s.records = append(s.records, &recordCopy)
	return nil
}

// GetByWallet returns records for a wallet, newest first.
func (s *ScanRecordStore) GetByWallet(_ context.Context, chainID int64, wallet string, limit int) ([]*domain.ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScanRecord
	for _, r := range s.records {
		if r.ChainID == chainID && r.Wallet == wallet {
			recordCopy := *r
			result = append(result, &recordCopy)
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

// CountSince counts records created at or after sinceMs.
func (s *ScanRecordStore) CountSince(_ context.Context, sinceMs int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.records {
		if r.CreatedAt >= sinceMs {
			n++
		}
	}
	return n, nil
}

// Verify interface compliance at compile time.
var _ storage.ScanRecordStore = (*ScanRecordStore)(nil)
