// Package main is a one-shot CLI: scan a wallet once and print the result
// as JSON. Useful for smoke-testing provider keys and filter settings
// without running the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"swaperex-scan/internal/cache"
	"swaperex-scan/internal/config"
	"swaperex-scan/internal/domain"
	"swaperex-scan/internal/pipeline"
	"swaperex-scan/internal/provider"
	"swaperex-scan/internal/scan"
)

func main() {
	chainID := flag.Int64("chain-id", 1, "Chain ID to scan")
	address := flag.String("address", "", "Wallet address (required)")
	minUSD := flag.Float64("min-usd", -1, "Minimum USD value per token (-1 uses SCAN_MIN_USD)")
	timeout := flag.Duration("timeout", 60*time.Second, "Overall scan timeout")
	flag.Parse()

	logger := log.New(os.Stderr, "[scan] ", log.LstdFlags)

	if *address == "" {
		logger.Fatal("--address is required")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *minUSD >= 0 {
		cfg.ScanMinUSD = *minUSD
	}

	prices := provider.NewPriceClient()
	providers := []provider.Provider{
		provider.NewMoralis(cfg.MoralisAPIKey),
		provider.NewExplorer(cfg.EtherscanAPIKey, prices, provider.WithExplorerLogger(logger)),
	}

	svc := scan.NewService(scan.Options{
		Cache:        cache.New[*domain.ScanResult](cfg.ScanCacheTTL),
		Orchestrator: scan.NewOrchestrator(providers, logger),
		Pipeline: pipeline.Config{
			MinValueUsd: cfg.ScanMinUSD,
			MaxTokens:   cfg.ScanMaxTokens,
		},
		Logger: logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := svc.Scan(ctx, *chainID, *address)
	if err != nil {
		logger.Fatalf("scan: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Fatalf("encode result: %v", err)
	}
}
