// Package scan coordinates a wallet scan end to end: provider fallback,
// normalization pipeline, caching, and best-effort persistence.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"swaperex-scan/internal/observability"
	"swaperex-scan/internal/provider"
)

// ErrAllProvidersFailed is returned when no provider produced a definitive
// answer. Distinct from an empty wallet: "we could not determine" versus
// "a provider answered zero".
var ErrAllProvidersFailed = errors.New("all providers failed")

// Orchestrator walks a fixed, ordered provider list. The last provider is
// terminal: its definitive answer (even zero tokens) ends the walk, which
// guarantees termination.
type Orchestrator struct {
	providers []provider.Provider
	logger    *log.Logger
}

// NewOrchestrator creates an orchestrator over the given priority order.
func NewOrchestrator(providers []provider.Provider, logger *log.Logger) *Orchestrator {
	return &Orchestrator{providers: providers, logger: logger}
}

// Providers returns the configured priority order, for status reporting.
func (o *Orchestrator) Providers() []string {
	names := make([]string, len(o.providers))
	for i, p := range o.providers {
		names[i] = p.Name()
	}
	return names
}

// Run tries providers in priority order. A provider error is recorded and
// the next provider is tried; it never propagates raw to the caller. First
// success wins deterministically by order, not by speed.
func (o *Orchestrator) Run(ctx context.Context, chainID int64, wallet string) (*provider.Result, string, error) {
	var (
		lastResult   *provider.Result
		lastProvider string
		failures     []string
	)

	for i, p := range o.providers {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		if !p.Supports(chainID) {
			o.logf("provider %s skipped: chain %d unsupported", p.Name(), chainID)
			continue
		}

		started := time.Now()
		result, err := p.Fetch(ctx, chainID, wallet)
		if err != nil {
			observability.RecordProviderFetch(p.Name(), "error", time.Since(started).Seconds())
			o.logf("provider %s failed: %v", p.Name(), err)
			failures = append(failures, fmt.Sprintf("%s: %v", p.Name(), err))
			continue
		}

		observability.RecordProviderFetch(p.Name(), "ok", time.Since(started).Seconds())
		lastResult = result
		lastProvider = p.Name()

		terminal := i == len(o.providers)-1
		if len(result.Tokens) > 0 || terminal {
			return result, p.Name(), nil
		}
		o.logf("provider %s returned no tokens, trying next", p.Name())
	}

	// A non-terminal provider may have definitively answered zero before
	// the rest of the chain errored out; that is still an empty success.
	if lastResult != nil {
		return lastResult, lastProvider, nil
	}

	if len(failures) > 0 {
		return nil, "", fmt.Errorf("%w: %s", ErrAllProvidersFailed, strings.Join(failures, "; "))
	}
	return nil, "", fmt.Errorf("%w: no provider supports chain %d", ErrAllProvidersFailed, chainID)
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.logger != nil {
		o.logger.Printf(format, args...)
	}
}
