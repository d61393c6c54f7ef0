package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ValidAddress reports whether s is a 0x-prefixed 40-hex-character address.
func ValidAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

// NormalizeAddress lower-cases an address for use as a map or cache key.
// Addresses compare case-insensitively; checksum casing is display-only.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
