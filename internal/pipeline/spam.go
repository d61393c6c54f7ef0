package pipeline

import (
	"regexp"
	"strings"

	"swaperex-scan/internal/domain"
)

// defaultSpamPatterns flag the usual scam-token vocabulary: url-like
// symbols and airdrop/claim bait. Applied case-insensitively to both the
// symbol and the name.
var defaultSpamPatterns = []string{
	`https?://`,
	`www\.`,
	`\.(com|net|org|io|xyz|site|club|top|vip|fi)\b`,
	`\bairdrop\b`,
	`\bclaim\b`,
	`\bfree\b`,
	`\brewards?\b`,
	`\bvisit\b`,
	`\bbonus\b`,
	`\bgift\b`,
	`\bvoucher\b`,
}

// placeholderSymbols are provider stand-ins for missing metadata; a token
// carrying one is treated the same as one with an empty symbol.
var placeholderSymbols = map[string]struct{}{
	"unknown": {},
	"n/a":     {},
	"none":    {},
	"?":       {},
	"???":     {},
}

// SpamMatcher classifies tokens as noise by static blacklist, pattern
// match, or missing metadata. Adapters use the pattern half as a cheap
// first pass before spending balance calls; the pipeline applies the whole
// matcher regardless, so the adapter pass is an optimization only.
type SpamMatcher struct {
	patterns  []*regexp.Regexp
	blacklist map[string]struct{}
}

// NewSpamMatcher compiles the given patterns (case-insensitive) on top of
// a contract-address blacklist.
func NewSpamMatcher(patterns []string, blacklist []string) (*SpamMatcher, error) {
	m := &SpamMatcher{blacklist: make(map[string]struct{}, len(blacklist))}
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		m.patterns = append(m.patterns, re)
	}
	for _, addr := range blacklist {
		m.blacklist[domain.NormalizeAddress(addr)] = struct{}{}
	}
	return m, nil
}

// DefaultSpamMatcher returns a matcher with the built-in patterns and an
// empty blacklist.
func DefaultSpamMatcher() *SpamMatcher {
	m, err := NewSpamMatcher(defaultSpamPatterns, nil)
	if err != nil {
		panic(err) // built-in patterns are compile-checked by tests
	}
	return m
}

// MatchesText reports whether symbol or name trips a spam pattern. This is
// the first-pass check adapters run before requesting balances.
func (m *SpamMatcher) MatchesText(symbol, name string) bool {
	for _, re := range m.patterns {
		if re.MatchString(symbol) || re.MatchString(name) {
			return true
		}
	}
	return false
}

// Blacklisted reports whether the contract address is on the static list.
func (m *SpamMatcher) Blacklisted(address string) bool {
	_, ok := m.blacklist[domain.NormalizeAddress(address)]
	return ok
}

// IsSpam is the complete classification: blacklist, pattern match, or
// empty/placeholder metadata. Native assets are exempt.
func (m *SpamMatcher) IsSpam(t domain.WalletToken) bool {
	if t.IsNative {
		return false
	}
	if m.Blacklisted(t.Address) {
		return true
	}
	if m.MatchesText(t.Symbol, t.Name) {
		return true
	}

	symbol := strings.ToLower(strings.TrimSpace(t.Symbol))
	if symbol == "" {
		return true
	}
	if _, placeholder := placeholderSymbols[symbol]; placeholder {
		return true
	}
	if strings.TrimSpace(t.Name) == "" {
		return true
	}
	return false
}
