// Package provider wraps the upstream token-discovery sources behind a
// common contract: the Moralis aggregator API, an Etherscan-family block
// explorer, and the DexScreener price API.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"swaperex-scan/internal/domain"
)

// DefaultRequestTimeout bounds every upstream HTTP call.
const DefaultRequestTimeout = 10 * time.Second

// DefaultBatchSize limits concurrent per-token sub-fetches inside an
// adapter, keeping upstream rate limits intact.
const DefaultBatchSize = 5

// Result is one provider's answer for a wallet. Zero tokens is a valid,
// definitive answer; only transport-level failures surface as errors.
type Result struct {
	Tokens   []domain.RawToken
	Warnings []string
}

// Provider is the token-discovery contract every adapter satisfies.
type Provider interface {
	// Name identifies the adapter in results, logs and metrics.
	Name() string

	// Supports reports whether the adapter can serve the chain. An adapter
	// missing its API key simply supports nothing.
	Supports(chainID int64) bool

	// Fetch discovers the wallet's holdings. It returns an error only on
	// transport-level failure (timeout, non-2xx, malformed payload).
	Fetch(ctx context.Context, chainID int64, wallet string) (*Result, error)
}

// getJSON performs a GET with the request's context and decodes a JSON body.
func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
