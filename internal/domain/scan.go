package domain

import "time"

// ScanStats is the filtering funnel for one scan. Counters are monotonically
// non-increasing in declaration order; BelowMinValue and FinalTokens
// partition AfterSpamFilter.
type ScanStats struct {
	ProviderTokens   int `json:"providerTokens"`
	AfterChainFilter int `json:"afterChainFilter"`
	AfterSpamFilter  int `json:"afterSpamFilter"`
	BelowMinValue    int `json:"belowMinValue"`
	FinalTokens      int `json:"finalTokens"`
}

// ScanResult is one immutable outcome of a wallet scan. A result is created
// once per cache miss and never mutated; expiry discards it entirely.
type ScanResult struct {
	ChainID     int64         `json:"chainId"`
	Wallet      string        `json:"wallet"` // lower-cased
	Provider    string        `json:"provider"`
	FetchedAt   time.Time     `json:"fetchedAt"`
	MinValueUsd float64       `json:"minValueUsd"`
	Tokens      []WalletToken `json:"tokens"`
	Stats       ScanStats     `json:"stats"`
	Warnings    []string      `json:"warnings"`
	Cached      bool          `json:"cached"`
	CacheAge    *int64        `json:"cacheAge,omitempty"` // seconds, set on cache hits
}

// ScanRecord is the persisted audit row for one fresh (non-cached) scan.
// Corresponds to the scan_records table in PostgreSQL.
type ScanRecord struct {
	ChainID    int64
	Wallet     string
	Provider   string
	TokenCount int
	DurationMs int64
	CreatedAt  int64 // Unix timestamp in milliseconds
}

// ScanEvent is the analytics row written per scan, carrying the full stats
// funnel. Corresponds to the scan_events table in ClickHouse.
type ScanEvent struct {
	ChainID          int64
	Wallet           string
	Provider         string
	CacheHit         bool
	ProviderTokens   int
	AfterChainFilter int
	AfterSpamFilter  int
	BelowMinValue    int
	FinalTokens      int
	WarningCount     int
	DurationMs       int64
	CreatedAt        int64 // Unix timestamp in milliseconds
}
