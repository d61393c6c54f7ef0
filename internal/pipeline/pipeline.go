// Package pipeline normalizes and filters the raw holdings a provider
// discovered. Stages run in a fixed order (chain filter, dedup, spam
// filter, value filter, sort, cap) and every stage feeds the stats funnel.
package pipeline

import (
	"fmt"
	"sort"
	"strconv"

	"swaperex-scan/internal/domain"
)

// Config is the filter configuration, built once at startup and passed in;
// stages never read the environment.
type Config struct {
	MinValueUsd float64
	MaxTokens   int
	Spam        *SpamMatcher
}

// Outcome is the pipeline's deterministic product: identical provider
// output and identical config always yield identical tokens and stats.
type Outcome struct {
	Tokens   []domain.WalletToken
	Stats    domain.ScanStats
	Warnings []string
}

// Run applies the full pipeline to one provider result.
func Run(chainID int64, raw []domain.RawToken, cfg Config) Outcome {
	if cfg.Spam == nil {
		cfg.Spam = DefaultSpamMatcher()
	}

	providerTokens := len(raw)

	normalized := normalize(chainID, raw)
	deduped := dedup(normalized)
	afterChain := len(deduped)

	kept := deduped[:0:0]
	for _, t := range deduped {
		if !cfg.Spam.IsSpam(t) {
			kept = append(kept, t)
		}
	}
	afterSpam := len(kept)

	final, belowMin := filterValue(kept, cfg.MinValueUsd)
	sortTokens(final)
	if cfg.MaxTokens > 0 && len(final) > cfg.MaxTokens {
		final = final[:cfg.MaxTokens]
	}

	outcome := Outcome{
		Tokens: final,
		Stats:  BuildStats(providerTokens, afterChain, afterSpam, belowMin, len(final)),
	}

	if unpriced := countUnpriced(final); unpriced > 0 {
		outcome.Warnings = append(outcome.Warnings,
			fmt.Sprintf("price unavailable for %d tokens", unpriced))
	}

	return outcome
}

// normalize converts raw tokens to wallet tokens, dropping entries that do
// not belong in any result: wrong chain, unparseable or zero balance, or a
// malformed contract address.
func normalize(chainID int64, raw []domain.RawToken) []domain.WalletToken {
	out := make([]domain.WalletToken, 0, len(raw))
	for _, r := range raw {
		if r.ChainID != 0 && r.ChainID != chainID {
			continue
		}

		address := domain.NormalizeAddress(r.Address)
		if r.Native {
			address = domain.NativeTokenAddress
		} else if !domain.ValidAddress(address) {
			continue
		}

		formatted, err := domain.FormatUnits(r.Balance, r.Decimals)
		if err != nil || formatted == "0" {
			continue
		}

		t := domain.WalletToken{
			Address:          address,
			Symbol:           r.Symbol,
			Name:             r.Name,
			Decimals:         r.Decimals,
			Balance:          r.Balance,
			BalanceFormatted: formatted,
			UsdPrice:         r.UsdPrice,
			Verified:         r.Verified,
			IsNative:         r.Native,
		}

		if r.UsdPrice != nil {
			if amount, err := strconv.ParseFloat(formatted, 64); err == nil {
				value := amount * *r.UsdPrice
				price := *r.UsdPrice
				t.UsdPrice = &price
				t.UsdValue = &value
			}
		}

		out = append(out, t)
	}
	return out
}

// dedup removes case-insensitive duplicate addresses; the first occurrence
// (discovery order) wins.
func dedup(tokens []domain.WalletToken) []domain.WalletToken {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if _, dup := seen[t.Address]; dup {
			continue
		}
		seen[t.Address] = struct{}{}
		out = append(out, t)
	}
	return out
}

// filterValue drops tokens only when their USD value is known and below
// the threshold. Unknown price is never conflated with worthless: nil-value
// tokens survive (their balance is already known non-zero).
func filterValue(tokens []domain.WalletToken, minUsd float64) (kept []domain.WalletToken, belowMin int) {
	kept = tokens[:0:0]
	for _, t := range tokens {
		if t.UsdValue != nil && *t.UsdValue < minUsd {
			belowMin++
			continue
		}
		kept = append(kept, t)
	}
	return kept, belowMin
}

// sortTokens orders known-value tokens first (value descending), then
// unknown-value tokens by parsed formatted balance descending. The balance
// comparison also breaks value ties, keeping the order deterministic.
func sortTokens(tokens []domain.WalletToken) {
	sort.SliceStable(tokens, func(i, j int) bool {
		a, b := tokens[i], tokens[j]
		switch {
		case a.UsdValue != nil && b.UsdValue == nil:
			return true
		case a.UsdValue == nil && b.UsdValue != nil:
			return false
		case a.UsdValue != nil && b.UsdValue != nil && *a.UsdValue != *b.UsdValue:
			return *a.UsdValue > *b.UsdValue
		}
		return parsedBalance(a) > parsedBalance(b)
	})
}

func parsedBalance(t domain.WalletToken) float64 {
	v, err := strconv.ParseFloat(t.BalanceFormatted, 64)
	if err != nil {
		return 0
	}
	return v
}

func countUnpriced(tokens []domain.WalletToken) int {
	n := 0
	for _, t := range tokens {
		if t.UsdValue == nil {
			n++
		}
	}
	return n
}
