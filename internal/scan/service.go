package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"swaperex-scan/internal/cache"
	"swaperex-scan/internal/domain"
	"swaperex-scan/internal/observability"
	"swaperex-scan/internal/pipeline"
	"swaperex-scan/internal/storage"
)

// Sentinel errors for the scan boundary. Callers map these to protocol
// error codes; everything else is an internal failure.
var (
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrInvalidMinValue  = errors.New("invalid minimum value")
	ErrScanFailed       = errors.New("scan failed")
)

const persistTimeout = 5 * time.Second

// Options configures a scan Service. Cache and Orchestrator are required;
// stores are optional and writes to them are best-effort.
type Options struct {
	Cache        *cache.Service[*domain.ScanResult]
	Orchestrator *Orchestrator
	Pipeline     pipeline.Config
	Records      storage.ScanRecordStore
	Events       storage.ScanEventStore
	Logger       *log.Logger
}

// Service runs wallet scans: validate, consult the cache, orchestrate
// providers, run the pipeline, cache and persist the outcome.
type Service struct {
	cache        *cache.Service[*domain.ScanResult]
	orchestrator *Orchestrator
	pipeline     pipeline.Config
	records      storage.ScanRecordStore
	events       storage.ScanEventStore
	logger       *log.Logger

	now func() time.Time
}

// NewService creates a scan service.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[scan] ", log.LstdFlags)
	}
	return &Service{
		cache:        opts.Cache,
		orchestrator: opts.Orchestrator,
		pipeline:     opts.Pipeline,
		records:      opts.Records,
		events:       opts.Events,
		logger:       logger,
		now:          time.Now,
	}
}

// Providers returns the configured provider priority order.
func (s *Service) Providers() []string {
	return s.orchestrator.Providers()
}

// CacheStats returns a snapshot of the result cache counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// ClearCache drops all cached scan results.
func (s *Service) ClearCache() {
	s.cache.Clear()
	observability.UpdateCacheSize("scan", 0)
}

// Scan runs one wallet scan with the configured value threshold. Identical
// requests within the cache TTL return the identical stored result annotated
// with its age; a fresh scan walks the provider chain and runs the full
// pipeline.
func (s *Service) Scan(ctx context.Context, chainID int64, wallet string) (*domain.ScanResult, error) {
	return s.ScanWithMinValue(ctx, chainID, wallet, s.pipeline.MinValueUsd)
}

// ScanWithMinValue runs one wallet scan with a per-request value threshold.
// Results are cached per threshold, so callers with different minimums never
// share an entry.
func (s *Service) ScanWithMinValue(ctx context.Context, chainID int64, wallet string, minUsd float64) (*domain.ScanResult, error) {
	if !domain.SupportedChain(chainID) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChain, chainID)
	}

	wallet = domain.NormalizeAddress(wallet)
	if !domain.ValidAddress(wallet) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, wallet)
	}

	if minUsd < 0 || math.IsNaN(minUsd) || math.IsInf(minUsd, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMinValue, minUsd)
	}

	cfg := s.pipeline
	cfg.MinValueUsd = minUsd

	key := cacheKey(chainID, wallet, cfg.MinValueUsd)
	if cached, age, ok := s.cache.Get(key); ok {
		observability.RecordCacheHit("scan")
		return annotateCached(cached, age), nil
	}
	observability.RecordCacheMiss("scan")

	started := s.now()
	providerResult, providerName, err := s.orchestrator.Run(ctx, chainID, wallet)
	if err != nil {
		observability.RecordScan("none", "error", s.now().Sub(started).Seconds())
		return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
	}

	outcome := pipeline.Run(chainID, providerResult.Tokens, cfg)

	warnings := append([]string(nil), providerResult.Warnings...)
	warnings = append(warnings, outcome.Warnings...)

	result := &domain.ScanResult{
		ChainID:     chainID,
		Wallet:      wallet,
		Provider:    providerName,
		FetchedAt:   s.now().UTC(),
		MinValueUsd: cfg.MinValueUsd,
		Tokens:      outcome.Tokens,
		Stats:       outcome.Stats,
		Warnings:    warnings,
	}

	s.cache.Set(key, result)
	observability.UpdateCacheSize("scan", s.cache.Len())

	duration := s.now().Sub(started)
	observability.RecordScan(providerName, "ok", duration.Seconds())
	observability.RecordFunnel(
		outcome.Stats.ProviderTokens,
		outcome.Stats.AfterChainFilter,
		outcome.Stats.AfterSpamFilter,
		outcome.Stats.BelowMinValue,
		outcome.Stats.FinalTokens,
	)

	go s.persist(result, duration)

	return result, nil
}

// annotateCached returns a shallow copy of a cached result flagged as a hit.
// The stored result itself is never mutated.
func annotateCached(r *domain.ScanResult, age time.Duration) *domain.ScanResult {
	out := *r
	out.Cached = true
	ageSec := int64(age.Seconds())
	out.CacheAge = &ageSec
	return &out
}

// cacheKey includes the value threshold so a config change cannot serve
// results filtered under a different minimum.
func cacheKey(chainID int64, wallet string, minUsd float64) string {
	return fmt.Sprintf("%d:%s:%s", chainID, wallet, strconv.FormatFloat(minUsd, 'f', -1, 64))
}

// persist writes the audit record and analytics event off the request path.
// Failures are logged and counted, never surfaced to the caller.
func (s *Service) persist(r *domain.ScanResult, duration time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	createdAt := r.FetchedAt.UnixMilli()
	durationMs := duration.Milliseconds()

	if s.records != nil {
		err := s.records.Insert(ctx, &domain.ScanRecord{
			ChainID:    r.ChainID,
			Wallet:     r.Wallet,
			Provider:   r.Provider,
			TokenCount: len(r.Tokens),
			DurationMs: durationMs,
			CreatedAt:  createdAt,
		})
		observability.RecordStoreWrite("scan_records", err)
		if err != nil {
			s.logger.Printf("scan record insert failed: %v", err)
		}
	}

	if s.events != nil {
		err := s.events.Insert(ctx, &domain.ScanEvent{
			ChainID:          r.ChainID,
			Wallet:           r.Wallet,
			Provider:         r.Provider,
			CacheHit:         false,
			ProviderTokens:   r.Stats.ProviderTokens,
			AfterChainFilter: r.Stats.AfterChainFilter,
			AfterSpamFilter:  r.Stats.AfterSpamFilter,
			BelowMinValue:    r.Stats.BelowMinValue,
			FinalTokens:      r.Stats.FinalTokens,
			WarningCount:     len(r.Warnings),
			DurationMs:       durationMs,
			CreatedAt:        createdAt,
		})
		observability.RecordStoreWrite("scan_events", err)
		if err != nil {
			s.logger.Printf("scan event insert failed: %v", err)
		}
	}
}
