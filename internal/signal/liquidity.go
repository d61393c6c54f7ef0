// Package signal implements token-risk detectors that run on demand:
// a liquidity-drop detector fed by DexScreener and a whale-transfer
// detector fed by the block explorer. Both keep their working state in
// the shared TTL cache primitive, keyed per chain and token.
package signal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swaperex-scan/internal/cache"
	"swaperex-scan/internal/domain"
	"swaperex-scan/internal/observability"
	"swaperex-scan/internal/provider"
)

// Sentinel errors for the signal boundary.
var (
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrInvalidToken     = errors.New("invalid token address")
)

// LiquidityConfig holds liquidity-drop detection parameters.
type LiquidityConfig struct {
	DropPct float64 // percentage drop against baseline that triggers (default 50)
}

// DefaultLiquidityConfig returns the default detector configuration.
func DefaultLiquidityConfig() LiquidityConfig {
	return LiquidityConfig{DropPct: 50}
}

// LiquidityDropDetector flags tokens whose pool liquidity collapsed against
// the last observation. The baseline lives in the TTL cache: a token not
// evaluated within the TTL starts over with a fresh baseline, so the first
// evaluation never triggers.
type LiquidityDropDetector struct {
	config    LiquidityConfig
	prices    *provider.PriceClient
	baselines *cache.Service[float64]

	now func() time.Time
}

// NewLiquidityDropDetector creates a liquidity-drop detector.
func NewLiquidityDropDetector(config LiquidityConfig, prices *provider.PriceClient, baselines *cache.Service[float64]) *LiquidityDropDetector {
	if config.DropPct <= 0 {
		config.DropPct = DefaultLiquidityConfig().DropPct
	}
	return &LiquidityDropDetector{
		config:    config,
		prices:    prices,
		baselines: baselines,
		now:       time.Now,
	}
}

// Evaluate compares the token's current pool liquidity against the cached
// baseline. Returns a signal when the drop meets the threshold, nil when it
// does not or when no baseline exists yet.
func (d *LiquidityDropDetector) Evaluate(ctx context.Context, chainID int64, token string) (*domain.TokenSignal, error) {
	if !domain.SupportedChain(chainID) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChain, chainID)
	}
	token = domain.NormalizeAddress(token)
	if !domain.ValidAddress(token) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}

	price, err := d.prices.TokenPrice(ctx, chainID, token)
	if err != nil {
		return nil, fmt.Errorf("liquidity lookup: %w", err)
	}

	// No pairs at all reads as zero liquidity: the pool is gone.
	observed := 0.0
	if price != nil {
		observed = price.LiquidityUsd
	}

	key := baselineKey(chainID, token)
	baseline, _, ok := d.baselines.Get(key)
	if !ok {
		d.baselines.Set(key, observed)
		return nil, nil
	}

	if baseline <= 0 {
		d.baselines.Set(key, observed)
		return nil, nil
	}

	dropPct := (baseline - observed) / baseline * 100
	if dropPct < d.config.DropPct {
		// Rolling baseline: the latest healthy observation is the one the
		// next evaluation compares against.
		d.baselines.Set(key, observed)
		return nil, nil
	}

	observability.RecordSignal(string(domain.SignalLiquidityDrop))
	return &domain.TokenSignal{
		ChainID:     chainID,
		Token:       token,
		Kind:        domain.SignalLiquidityDrop,
		Observed:    observed,
		Baseline:    baseline,
		DropPct:     dropPct,
		TriggeredAt: d.now().UnixMilli(),
	}, nil
}

func baselineKey(chainID int64, token string) string {
	return fmt.Sprintf("%d:%s", chainID, token)
}
