package pipeline

import "swaperex-scan/internal/domain"

// BuildStats assembles the filtering funnel. Pure function of the stage
// counts: identical inputs always produce identical stats. The counters are
// monotonically non-increasing. belowMin+final partitions afterSpam as long
// as the token cap does not bind; final reflects the tokens actually
// returned, so a binding MaxTokens shrinks it below the partition count.
func BuildStats(providerTokens, afterChain, afterSpam, belowMin, final int) domain.ScanStats {
	return domain.ScanStats{
		ProviderTokens:   providerTokens,
		AfterChainFilter: afterChain,
		AfterSpamFilter:  afterSpam,
		BelowMinValue:    belowMin,
		FinalTokens:      final,
	}
}
