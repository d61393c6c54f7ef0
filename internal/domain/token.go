package domain

import (
	"fmt"
	"math/big"
	"strings"
)

// NativeTokenAddress is the sentinel contract address used for a chain's
// native asset, which has no ERC-20 contract of its own.
const NativeTokenAddress = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

// MaxFractionDigits bounds the fractional part of formatted balances.
const MaxFractionDigits = 6

// RawToken is a provider-discovered holding before normalization.
// Balance stays a raw integer string in the token's smallest unit;
// decimals are display-only and never cause on-chain precision loss.
type RawToken struct {
	ChainID  int64    // chain the balance was observed on
	Address  string   // contract address as reported by the provider
	Symbol   string   // may be empty or placeholder
	Name     string   // may be empty
	Decimals int      // >= 0
	Balance  string   // raw integer string, no decimal point
	UsdPrice *float64 // nil when the provider had no price
	Verified bool
	Native   bool
}

// WalletToken is one normalized holding inside a scan result.
type WalletToken struct {
	Address          string   `json:"address"`
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Decimals         int      `json:"decimals"`
	Balance          string   `json:"balance"`
	BalanceFormatted string   `json:"balanceFormatted"`
	UsdPrice         *float64 `json:"usdPrice"`
	UsdValue         *float64 `json:"usdValue"`
	Verified         bool     `json:"verified"`
	IsNative         bool     `json:"isNative"`
}

// FormatUnits converts a raw integer balance to a decimal string using
// big.Int division so that 18-decimal balances stay exact. The result keeps
// at most MaxFractionDigits fractional digits with trailing zeros stripped,
// and is "0" for a zero balance regardless of decimals.
func FormatUnits(raw string, decimals int) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty balance string")
	}

	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return "", fmt.Errorf("invalid balance %q", raw)
	}
	if value.Sign() < 0 {
		return "", fmt.Errorf("negative balance %q", raw)
	}
	if value.Sign() == 0 {
		return "0", nil
	}
	if decimals < 0 {
		return "", fmt.Errorf("negative decimals %d", decimals)
	}
	if decimals == 0 {
		return value.String(), nil
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(value, divisor, new(big.Int))

	fracStr := frac.String()
	if len(fracStr) < decimals {
		fracStr = strings.Repeat("0", decimals-len(fracStr)) + fracStr
	}
	if len(fracStr) > MaxFractionDigits {
		fracStr = fracStr[:MaxFractionDigits]
	}
	fracStr = strings.TrimRight(fracStr, "0")

	if fracStr == "" {
		return whole.String(), nil
	}
	return whole.String() + "." + fracStr, nil
}

// IsZeroBalance reports whether a raw integer balance string is zero.
// Malformed strings count as zero so they drop out of results.
func IsZeroBalance(raw string) bool {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return true
	}
	return value.Sign() == 0
}
