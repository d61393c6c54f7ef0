// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full application configuration. Every field has a usable
// default except the API keys, which gate their providers off when absent.
type Config struct {
	ListenAddr string

	MoralisAPIKey   string
	EtherscanAPIKey string
	ForcedProvider  string // pins the provider chain to one adapter, for debugging

	ScanCacheTTL  time.Duration
	ScanMinUSD    float64
	ScanMaxTokens int

	SignalCacheTTL   time.Duration
	LiquidityDropPct float64
	WhaleMinUSD      float64

	PostgresDSN   string
	ClickhouseDSN string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load() // Load .env if present

	cfg := &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		MoralisAPIKey:   os.Getenv("MORALIS_API_KEY"),
		EtherscanAPIKey: os.Getenv("ETHERSCAN_API_KEY"),
		ForcedProvider:  os.Getenv("FORCED_PROVIDER"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN:   os.Getenv("CLICKHOUSE_DSN"),
	}

	var err error
	if cfg.ScanCacheTTL, err = getEnvSeconds("SCAN_CACHE_TTL_SECONDS", 120); err != nil {
		return nil, err
	}
	if cfg.ScanMinUSD, err = getEnvFloat("SCAN_MIN_USD", 0.5); err != nil {
		return nil, err
	}
	if cfg.ScanMaxTokens, err = getEnvInt("SCAN_MAX_TOKENS", 50); err != nil {
		return nil, err
	}
	if cfg.SignalCacheTTL, err = getEnvSeconds("SIGNAL_CACHE_TTL_SECONDS", 600); err != nil {
		return nil, err
	}
	if cfg.LiquidityDropPct, err = getEnvFloat("LIQUIDITY_DROP_PCT", 50); err != nil {
		return nil, err
	}
	if cfg.WhaleMinUSD, err = getEnvFloat("WHALE_MIN_USD", 100000); err != nil {
		return nil, err
	}

	if cfg.ScanCacheTTL <= 0 {
		return nil, fmt.Errorf("SCAN_CACHE_TTL_SECONDS must be positive")
	}
	if cfg.ScanMaxTokens <= 0 {
		return nil, fmt.Errorf("SCAN_MAX_TOKENS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvSeconds(key string, fallback int) (time.Duration, error) {
	n, err := getEnvInt(key, fallback)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}
