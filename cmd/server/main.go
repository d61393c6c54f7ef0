// Package main runs the wallet-scan API server: token discovery with
// provider fallback, the normalization pipeline, result caching, token
// signal detectors and a WebSocket alert feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swaperex-scan/internal/api"
	"swaperex-scan/internal/cache"
	"swaperex-scan/internal/config"
	"swaperex-scan/internal/domain"
	"swaperex-scan/internal/pipeline"
	"swaperex-scan/internal/provider"
	"swaperex-scan/internal/scan"
	sig "swaperex-scan/internal/signal"
	"swaperex-scan/internal/storage"
	chstore "swaperex-scan/internal/storage/clickhouse"
	"swaperex-scan/internal/storage/memory"
	"swaperex-scan/internal/storage/migrations"
	pgstore "swaperex-scan/internal/storage/postgres"
)

// stores holds the persistence implementations behind the scan service.
type stores struct {
	records storage.ScanRecordStore
	events  storage.ScanEventStore
}

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("create stores: %v", err)
	}
	defer cleanup()

	prices := provider.NewPriceClient()
	providers, err := buildProviders(cfg, prices, logger)
	if err != nil {
		logger.Fatalf("build providers: %v", err)
	}
	logger.Printf("provider order: %v", providerNames(providers))

	scans := scan.NewService(scan.Options{
		Cache:        cache.New[*domain.ScanResult](cfg.ScanCacheTTL),
		Orchestrator: scan.NewOrchestrator(providers, logger),
		Pipeline: pipeline.Config{
			MinValueUsd: cfg.ScanMinUSD,
			MaxTokens:   cfg.ScanMaxTokens,
		},
		Records: st.records,
		Events:  st.events,
		Logger:  logger,
	})

	explorer := findExplorer(providers)
	if explorer == nil {
		explorer = provider.NewExplorer(cfg.EtherscanAPIKey, prices, provider.WithExplorerLogger(logger))
	}

	liquidity := sig.NewLiquidityDropDetector(
		sig.LiquidityConfig{DropPct: cfg.LiquidityDropPct},
		prices,
		cache.New[float64](cfg.SignalCacheTTL),
	)
	whales := sig.NewWhaleDetector(
		sig.WhaleConfig{MinUSD: cfg.WhaleMinUSD},
		explorer,
		prices,
		cache.New[bool](cfg.SignalCacheTTL),
	)

	hub := api.NewAlertHub(api.DefaultHubConfig(), logger)
	go hub.Start(ctx)

	server := api.NewServer(api.ServerOptions{
		Scans:     scans,
		Liquidity: liquidity,
		Whales:    whales,
		Hub:       hub,
		Logger:    logger,
	})

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Handler(),
	}

	go func() {
		logger.Printf("listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	received := <-sigCh
	logger.Printf("received %v, shutting down", received)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
	cancel()
	logger.Println("shutdown complete")
}

// buildProviders assembles the fallback chain in priority order: aggregator
// first, explorer last as the terminal provider. FORCED_PROVIDER pins the
// chain to a single adapter for debugging.
func buildProviders(cfg *config.Config, prices *provider.PriceClient, logger *log.Logger) ([]provider.Provider, error) {
	moralis := provider.NewMoralis(cfg.MoralisAPIKey)
	explorer := provider.NewExplorer(cfg.EtherscanAPIKey, prices, provider.WithExplorerLogger(logger))

	all := []provider.Provider{moralis, explorer}

	if cfg.ForcedProvider == "" {
		return all, nil
	}
	for _, p := range all {
		if p.Name() == cfg.ForcedProvider {
			return []provider.Provider{p}, nil
		}
	}
	return nil, fmt.Errorf("unknown FORCED_PROVIDER %q", cfg.ForcedProvider)
}

func findExplorer(providers []provider.Provider) *provider.ExplorerProvider {
	for _, p := range providers {
		if e, ok := p.(*provider.ExplorerProvider); ok {
			return e
		}
	}
	return nil
}

func providerNames(providers []provider.Provider) []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	return names
}

// createStores wires persistence. No DSNs means in-memory stores; a
// configured DSN gets its migrations applied at startup.
func createStores(ctx context.Context, cfg *config.Config, logger *log.Logger) (*stores, func(), error) {
	st := &stores{
		records: memory.NewScanRecordStore(),
		events:  memory.NewScanEventStore(),
	}
	cleanup := func() {}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		st.records = pgstore.NewScanRecordStore(pool)
		prev := cleanup
		cleanup = func() {
			pool.Close()
			prev()
		}
		logger.Println("scan records: postgres")
	} else {
		logger.Println("scan records: memory")
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		st.events = chstore.NewScanEventStore(conn)
		prev := cleanup
		cleanup = func() {
			conn.Close()
			prev()
		}
		logger.Println("scan events: clickhouse")
	} else {
		logger.Println("scan events: memory")
	}

	return st, cleanup, nil
}
