package pipeline

import (
	"fmt"
	"testing"

	"swaperex-scan/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func rawToken(addr, symbol string, decimals int, balance string, price *float64) domain.RawToken {
	return domain.RawToken{
		Address:  addr,
		Symbol:   symbol,
		Name:     symbol + " Token",
		Decimals: decimals,
		Balance:  balance,
		UsdPrice: price,
	}
}

const (
	addrA = "0x00000000000000000000000000000000000000aa"
	addrB = "0x00000000000000000000000000000000000000bb"
	addrC = "0x00000000000000000000000000000000000000cc"
	addrD = "0x00000000000000000000000000000000000000dd"
)

func TestRun_DropsWrongChainAndInvalidAddress(t *testing.T) {
	raw := []domain.RawToken{
		rawToken(addrA, "AAA", 18, "1000000000000000000", ptr(1)),
		{ChainID: 137, Address: addrB, Symbol: "BBB", Decimals: 18, Balance: "1000000000000000000"},
		rawToken("0xnothex", "BAD", 18, "1000000000000000000", nil),
	}

	out := Run(1, raw, Config{})

	if out.Stats.ProviderTokens != 3 {
		t.Errorf("ProviderTokens: got %d, want 3", out.Stats.ProviderTokens)
	}
	if out.Stats.AfterChainFilter != 1 {
		t.Errorf("AfterChainFilter: got %d, want 1", out.Stats.AfterChainFilter)
	}
	if len(out.Tokens) != 1 || out.Tokens[0].Symbol != "AAA" {
		t.Errorf("Expected only AAA to survive, got %+v", out.Tokens)
	}
}

func TestRun_DropsZeroAndMalformedBalance(t *testing.T) {
	raw := []domain.RawToken{
		rawToken(addrA, "AAA", 18, "0", ptr(1)),
		rawToken(addrB, "BBB", 18, "not-a-number", ptr(1)),
		rawToken(addrC, "CCC", 6, "1000000", ptr(1)),
	}

	out := Run(1, raw, Config{})

	if out.Stats.AfterChainFilter != 1 {
		t.Errorf("AfterChainFilter: got %d, want 1", out.Stats.AfterChainFilter)
	}
	if len(out.Tokens) != 1 || out.Tokens[0].Symbol != "CCC" {
		t.Errorf("Expected only CCC to survive, got %+v", out.Tokens)
	}
}

func TestRun_DedupCaseInsensitiveFirstWins(t *testing.T) {
	raw := []domain.RawToken{
		rawToken(addrA, "FIRST", 18, "1000000000000000000", ptr(2)),
		rawToken("0x00000000000000000000000000000000000000AA", "SECOND", 18, "5000000000000000000", ptr(3)),
	}

	out := Run(1, raw, Config{})

	if out.Stats.AfterChainFilter != 1 {
		t.Errorf("AfterChainFilter: got %d, want 1", out.Stats.AfterChainFilter)
	}
	if len(out.Tokens) != 1 {
		t.Fatalf("Expected 1 token, got %d", len(out.Tokens))
	}
	if out.Tokens[0].Symbol != "FIRST" {
		t.Errorf("First occurrence should win, got %s", out.Tokens[0].Symbol)
	}
	if out.Tokens[0].Address != addrA {
		t.Errorf("Address should be normalized lowercase, got %s", out.Tokens[0].Address)
	}
}

func TestRun_SpamFiltered(t *testing.T) {
	raw := []domain.RawToken{
		rawToken(addrA, "GOOD", 18, "1000000000000000000", ptr(5)),
		{Address: addrB, Symbol: "FREE", Name: "Free Airdrop Token", Decimals: 18, Balance: "1000000000000000000", UsdPrice: ptr(100)},
		{Address: addrC, Symbol: "V", Name: "Visit site.com to claim", Decimals: 18, Balance: "1000000000000000000"},
	}

	out := Run(1, raw, Config{})

	if out.Stats.AfterChainFilter != 3 {
		t.Errorf("AfterChainFilter: got %d, want 3", out.Stats.AfterChainFilter)
	}
	if out.Stats.AfterSpamFilter != 1 {
		t.Errorf("AfterSpamFilter: got %d, want 1", out.Stats.AfterSpamFilter)
	}
	if len(out.Tokens) != 1 || out.Tokens[0].Symbol != "GOOD" {
		t.Errorf("Expected only GOOD to survive, got %+v", out.Tokens)
	}
}

func TestRun_NativeExemptFromSpamFilter(t *testing.T) {
	raw := []domain.RawToken{
		{Native: true, Symbol: "ETH", Name: "Ether", Decimals: 18, Balance: "1000000000000000000", UsdPrice: ptr(2000)},
	}

	out := Run(1, raw, Config{})

	if len(out.Tokens) != 1 || !out.Tokens[0].IsNative {
		t.Fatalf("Native token must survive, got %+v", out.Tokens)
	}
	if out.Tokens[0].Address != domain.NativeTokenAddress {
		t.Errorf("Native address: got %s", out.Tokens[0].Address)
	}
}

func TestRun_ValueFilterKeepsUnknownPrice(t *testing.T) {
	raw := []domain.RawToken{
		rawToken(addrA, "RICH", 18, "1000000000000000000", ptr(500)),
		rawToken(addrB, "POOR", 18, "1000000000000000000", ptr(1)),
		rawToken(addrC, "NOPX", 18, "1000000000000000000", nil),
	}

	out := Run(1, raw, Config{MinValueUsd: 100})

	if out.Stats.BelowMinValue != 1 {
		t.Errorf("BelowMinValue: got %d, want 1", out.Stats.BelowMinValue)
	}
	if out.Stats.FinalTokens != 2 {
		t.Errorf("FinalTokens: got %d, want 2", out.Stats.FinalTokens)
	}
	if len(out.Tokens) != 2 {
		t.Fatalf("Expected 2 tokens, got %d", len(out.Tokens))
	}

	symbols := []string{out.Tokens[0].Symbol, out.Tokens[1].Symbol}
	if symbols[0] != "RICH" || symbols[1] != "NOPX" {
		t.Errorf("Expected [RICH NOPX], got %v", symbols)
	}
}

func TestRun_PlaceholderSymbolFiltered(t *testing.T) {
	// Provider stand-ins for missing metadata are spam even with a price
	raw := []domain.RawToken{
		rawToken(addrA, "UNKNOWN", 18, "1000000000000000000", ptr(5)),
		rawToken(addrB, "N/A", 18, "1000000000000000000", ptr(5)),
		rawToken(addrC, "REAL", 18, "1000000000000000000", ptr(5)),
	}

	out := Run(1, raw, Config{})

	if out.Stats.AfterSpamFilter != 1 {
		t.Errorf("AfterSpamFilter: got %d, want 1", out.Stats.AfterSpamFilter)
	}
	if len(out.Tokens) != 1 || out.Tokens[0].Symbol != "REAL" {
		t.Errorf("Expected only REAL to survive, got %+v", out.Tokens)
	}
}

func TestRun_SortOrder(t *testing.T) {
	raw := []domain.RawToken{
		rawToken(addrB, "NOPRICE", 18, "7000000000000000000", nil),
		rawToken(addrC, "SMALL", 18, "1000000000000000000", ptr(10)),
		rawToken(addrA, "BIG", 18, "1000000000000000000", ptr(50)),
		rawToken(addrD, "NOPRICE2", 18, "2000000000000000000", nil),
	}

	out := Run(1, raw, Config{})

	want := []string{"BIG", "SMALL", "NOPRICE", "NOPRICE2"}
	if len(out.Tokens) != len(want) {
		t.Fatalf("Expected %d tokens, got %d", len(want), len(out.Tokens))
	}
	for i, symbol := range want {
		if out.Tokens[i].Symbol != symbol {
			t.Errorf("Position %d: got %s, want %s", i, out.Tokens[i].Symbol, symbol)
		}
	}
}

func TestRun_MaxTokensCapAppliedAfterSort(t *testing.T) {
	var raw []domain.RawToken
	for i := 0; i < 5; i++ {
		addr := fmt.Sprintf("0x00000000000000000000000000000000000000%02d", i+10)
		raw = append(raw, rawToken(addr, fmt.Sprintf("T%d", i), 18, "1000000000000000000", ptr(float64(i+1))))
	}

	out := Run(1, raw, Config{MaxTokens: 2})

	if len(out.Tokens) != 2 {
		t.Fatalf("Expected 2 tokens, got %d", len(out.Tokens))
	}
	// Cap keeps the most valuable, not the first discovered
	if out.Tokens[0].Symbol != "T4" || out.Tokens[1].Symbol != "T3" {
		t.Errorf("Expected [T4 T3], got [%s %s]", out.Tokens[0].Symbol, out.Tokens[1].Symbol)
	}
	if out.Stats.FinalTokens != 2 {
		t.Errorf("FinalTokens: got %d, want 2", out.Stats.FinalTokens)
	}
	// A binding cap shrinks FinalTokens below the AfterSpamFilter partition
	if out.Stats.AfterSpamFilter != 5 || out.Stats.BelowMinValue != 0 {
		t.Errorf("Pre-cap counts: got %+v", out.Stats)
	}
}

func TestRun_StatsPartition(t *testing.T) {
	raw := []domain.RawToken{
		rawToken(addrA, "KEEP", 18, "1000000000000000000", ptr(10)),
		rawToken(addrB, "DUST", 18, "1000000000000000000", ptr(0.01)),
		{Address: addrC, Symbol: "FREE", Name: "Free Airdrop Token", Decimals: 18, Balance: "1000000000000000000"},
		{ChainID: 137, Address: addrD, Symbol: "WRONG", Decimals: 18, Balance: "1000000000000000000"},
	}

	out := Run(1, raw, Config{MinValueUsd: 0.5})

	s := out.Stats
	if s.ProviderTokens < s.AfterChainFilter || s.AfterChainFilter < s.AfterSpamFilter {
		t.Errorf("Funnel not monotonic: %+v", s)
	}
	if s.BelowMinValue+s.FinalTokens != s.AfterSpamFilter {
		t.Errorf("BelowMinValue+FinalTokens must partition AfterSpamFilter: %+v", s)
	}
	want := domain.ScanStats{ProviderTokens: 4, AfterChainFilter: 3, AfterSpamFilter: 2, BelowMinValue: 1, FinalTokens: 1}
	if s != want {
		t.Errorf("Stats mismatch: got %+v, want %+v", s, want)
	}
}

func TestRun_UnpricedWarning(t *testing.T) {
	raw := []domain.RawToken{
		rawToken(addrA, "AAA", 18, "1000000000000000000", nil),
		rawToken(addrB, "BBB", 18, "1000000000000000000", nil),
		rawToken(addrC, "CCC", 18, "1000000000000000000", ptr(1)),
	}

	out := Run(1, raw, Config{})

	if len(out.Warnings) != 1 || out.Warnings[0] != "price unavailable for 2 tokens" {
		t.Errorf("Expected unpriced warning for 2 tokens, got %v", out.Warnings)
	}
}

func TestRun_Deterministic(t *testing.T) {
	raw := []domain.RawToken{
		rawToken(addrA, "AAA", 18, "1000000000000000000", ptr(3)),
		rawToken(addrB, "BBB", 18, "1000000000000000000", ptr(3)),
		rawToken(addrC, "CCC", 18, "2000000000000000000", nil),
	}

	first := Run(1, raw, Config{MinValueUsd: 0.5, MaxTokens: 50})
	second := Run(1, raw, Config{MinValueUsd: 0.5, MaxTokens: 50})

	if first.Stats != second.Stats {
		t.Errorf("Stats diverged: %+v vs %+v", first.Stats, second.Stats)
	}
	for i := range first.Tokens {
		if first.Tokens[i].Address != second.Tokens[i].Address {
			t.Errorf("Order diverged at %d: %s vs %s", i, first.Tokens[i].Address, second.Tokens[i].Address)
		}
	}
}

func TestRun_EmptyInput(t *testing.T) {
	out := Run(1, nil, Config{MinValueUsd: 0.5})

	if len(out.Tokens) != 0 {
		t.Errorf("Expected no tokens, got %d", len(out.Tokens))
	}
	if out.Stats != (domain.ScanStats{}) {
		t.Errorf("Expected zero stats, got %+v", out.Stats)
	}
	if len(out.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", out.Warnings)
	}
}
