package signal

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"swaperex-scan/internal/cache"
	"swaperex-scan/internal/domain"
	"swaperex-scan/internal/observability"
	"swaperex-scan/internal/provider"
)

// WhaleConfig holds whale-transfer detection parameters.
type WhaleConfig struct {
	MinUSD        float64 // transfer value that triggers (default 100000)
	TransferLimit int     // how many recent transfers to inspect (default 100)
}

// DefaultWhaleConfig returns the default detector configuration.
func DefaultWhaleConfig() WhaleConfig {
	return WhaleConfig{MinUSD: 100000, TransferLimit: 100}
}

// WhaleDetector flags individual transfers whose USD value meets the
// threshold. Transfer history comes from the explorer adapter, valuation
// from DexScreener. Triggered transaction hashes are remembered in the TTL
// cache so repeated evaluations do not re-emit the same transfer.
type WhaleDetector struct {
	config   WhaleConfig
	explorer *provider.ExplorerProvider
	prices   *provider.PriceClient
	seen     *cache.Service[bool]

	now func() time.Time
}

// NewWhaleDetector creates a whale-transfer detector.
func NewWhaleDetector(config WhaleConfig, explorer *provider.ExplorerProvider, prices *provider.PriceClient, seen *cache.Service[bool]) *WhaleDetector {
	defaults := DefaultWhaleConfig()
	if config.MinUSD <= 0 {
		config.MinUSD = defaults.MinUSD
	}
	if config.TransferLimit <= 0 {
		config.TransferLimit = defaults.TransferLimit
	}
	return &WhaleDetector{
		config:   config,
		explorer: explorer,
		prices:   prices,
		seen:     seen,
		now:      time.Now,
	}
}

// Evaluate inspects the token's recent transfer history and returns one
// signal per unseen transfer at or above the threshold, newest first. An
// unpriceable token yields no signals: without a price there is no USD
// value to judge.
func (d *WhaleDetector) Evaluate(ctx context.Context, chainID int64, token string) ([]domain.TokenSignal, error) {
	if !domain.SupportedChain(chainID) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChain, chainID)
	}
	token = domain.NormalizeAddress(token)
	if !domain.ValidAddress(token) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}

	price, err := d.prices.TokenPrice(ctx, chainID, token)
	if err != nil {
		return nil, fmt.Errorf("price lookup: %w", err)
	}
	if price == nil || price.PriceUsd <= 0 {
		return nil, nil
	}

	transfers, err := d.explorer.TokenTransfers(ctx, chainID, token, d.config.TransferLimit)
	if err != nil {
		return nil, fmt.Errorf("transfer history: %w", err)
	}

	var signals []domain.TokenSignal
	for _, tr := range transfers {
		decimals, err := strconv.Atoi(tr.TokenDecimal)
		if err != nil || decimals < 0 {
			decimals = 18
		}

		formatted, err := domain.FormatUnits(tr.Value, decimals)
		if err != nil {
			continue
		}
		amount, err := strconv.ParseFloat(formatted, 64)
		if err != nil {
			continue
		}

		usd := amount * price.PriceUsd
		if usd < d.config.MinUSD {
			continue
		}

		key := seenKey(chainID, tr.Hash)
		if _, _, ok := d.seen.Get(key); ok {
			continue
		}
		d.seen.Set(key, true)

		observability.RecordSignal(string(domain.SignalWhaleTransfer))
		signals = append(signals, domain.TokenSignal{
			ChainID:     chainID,
			Token:       token,
			Kind:        domain.SignalWhaleTransfer,
			Observed:    usd,
			TxHash:      tr.Hash,
			TriggeredAt: d.now().UnixMilli(),
		})
	}

	return signals, nil
}

func seenKey(chainID int64, txHash string) string {
	return fmt.Sprintf("%d:%s", chainID, txHash)
}
