package clickhouse

import (
	"context"
	"fmt"

	"swaperex-scan/internal/domain"
	"swaperex-scan/internal/storage"
)

// ScanEventStore implements storage.ScanEventStore using ClickHouse.
// MergeTree does not enforce uniqueness; the store is append-only by
// construction.
type ScanEventStore struct {
	conn *Conn
}

// NewScanEventStore creates a new ScanEventStore.
func NewScanEventStore(conn *Conn) *ScanEventStore {
	return &ScanEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScanEventStore = (*ScanEventStore)(nil)

// Insert appends a scan event.
func (s *ScanEventStore) Insert(ctx context.Context, e *domain.ScanEvent) error {
	if e == nil || e.Wallet == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO scan_events (
			chain_id, wallet, provider, cache_hit,
			provider_tokens, after_chain_filter, after_spam_filter,
			below_min_value, final_tokens, warning_count,
			duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	err := s.conn.Exec(ctx, query,
		e.ChainID,
		e.Wallet,
		e.Provider,
		e.CacheHit,
		uint32(e.ProviderTokens),
		uint32(e.AfterChainFilter),
		uint32(e.AfterSpamFilter),
		uint32(e.BelowMinValue),
		uint32(e.FinalTokens),
		uint32(e.WarningCount),
		e.DurationMs,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scan event: %w", err)
	}
	return nil
}

// GetByWallet returns events for a wallet, newest first.
func (s *ScanEventStore) GetByWallet(ctx context.Context, chainID int64, wallet string, limit int) ([]*domain.ScanEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT chain_id, wallet, provider, cache_hit,
		       provider_tokens, after_chain_filter, after_spam_filter,
		       below_min_value, final_tokens, warning_count,
		       duration_ms, created_at
		FROM scan_events
		WHERE chain_id = $1 AND wallet = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := s.conn.Query(ctx, query, chainID, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("get scan events by wallet: %w", err)
	}
	defer rows.Close()

	var result []*domain.ScanEvent
	for rows.Next() {
		var (
			e                                     domain.ScanEvent
			providerTokens, afterChain, afterSpam uint32
			belowMin, finalTokens, warningCount   uint32
		)
		if err := rows.Scan(
			&e.ChainID,
			&e.Wallet,
			&e.Provider,
			&e.CacheHit,
			&providerTokens,
			&afterChain,
			&afterSpam,
			&belowMin,
			&finalTokens,
			&warningCount,
			&e.DurationMs,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		e.ProviderTokens = int(providerTokens)
		e.AfterChainFilter = int(afterChain)
		e.AfterSpamFilter = int(afterSpam)
		e.BelowMinValue = int(belowMin)
		e.FinalTokens = int(finalTokens)
		e.WarningCount = int(warningCount)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan events: %w", err)
	}
	return result, nil
}
