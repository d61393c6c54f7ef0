package postgres

import (
	"context"
	"fmt"

	"swaperex-scan/internal/domain"
	"swaperex-scan/internal/storage"
)

// ScanRecordStore implements storage.ScanRecordStore using PostgreSQL.
type ScanRecordStore struct {
	pool *Pool
}

// NewScanRecordStore creates a new ScanRecordStore.
func NewScanRecordStore(pool *Pool) *ScanRecordStore {
	return &ScanRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScanRecordStore = (*ScanRecordStore)(nil)

// Insert appends a scan record.
func (s *ScanRecordStore) Insert(ctx context.Context, r *domain.ScanRecord) error {
	if r == nil || r.Wallet == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO scan_records (
			chain_id, wallet, provider, token_count, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ChainID,
		r.Wallet,
		r.Provider,
		r.TokenCount,
		r.DurationMs,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scan record: %w", err)
	}
	return nil
}

// GetByWallet returns the most recent records for a wallet, newest first.
func (s *ScanRecordStore) GetByWallet(ctx context.Context, chainID int64, wallet string, limit int) ([]*domain.ScanRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT chain_id, wallet, provider, token_count, duration_ms, created_at
		FROM scan_records
		WHERE chain_id = $1 AND wallet = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, chainID, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("get scan records by wallet: %w", err)
	}
	defer rows.Close()

	var result []*domain.ScanRecord
	for rows.Next() {
		var r domain.ScanRecord
		if err := rows.Scan(
			&r.ChainID,
			&r.Wallet,
			&r.Provider,
			&r.TokenCount,
			&r.DurationMs,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan records: %w", err)
	}
	return result, nil
}

// CountSince counts records created at or after sinceMs.
func (s *ScanRecordStore) CountSince(ctx context.Context, sinceMs int64) (int64, error) {
	query := `SELECT COUNT(*) FROM scan_records WHERE created_at >= $1`

	var n int64
	if err := s.pool.QueryRow(ctx, query, sinceMs).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scan records: %w", err)
	}
	return n, nil
}
