// Package storage defines the persistence contracts for scan auditing and
// analytics. Implementations exist for memory (always available), for
// PostgreSQL (scan records) and for ClickHouse (scan events). All stores
// are append-only and best-effort: a failed write never fails a scan.
package storage

import (
	"context"

	"swaperex-scan/internal/domain"
)

// ScanRecordStore persists one audit row per fresh scan.
type ScanRecordStore interface {
	// Insert appends a scan record.
	Insert(ctx context.Context, r *domain.ScanRecord) error

	// GetByWallet returns the most recent records for a wallet on a chain,
	// newest first, at most limit rows.
	GetByWallet(ctx context.Context, chainID int64, wallet string, limit int) ([]*domain.ScanRecord, error)

	// CountSince returns the number of records created at or after the
	// given Unix-millisecond timestamp.
	CountSince(ctx context.Context, sinceMs int64) (int64, error)
}

// ScanEventStore persists the per-scan stats funnel for analytics.
type ScanEventStore interface {
	// Insert appends a scan event.
	Insert(ctx context.Context, e *domain.ScanEvent) error

	// GetByWallet returns events for a wallet on a chain, newest first,
	// at most limit rows.
	GetByWallet(ctx context.Context, chainID int64, wallet string, limit int) ([]*domain.ScanEvent, error)
}
