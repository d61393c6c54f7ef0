package domain

// Chain describes one supported EVM network and the identifiers the
// upstream providers use for it. A chain with an empty provider slug is
// simply not served by that provider.
type Chain struct {
	ID              int64
	Name            string
	NativeSymbol    string
	NativeName      string
	NativeDecimals  int
	WrappedNative   string // wrapped-native contract, used for pricing the native asset
	MoralisSlug     string
	DexScreenerSlug string
}

// chains is the fixed registry of supported networks.
var chains = map[int64]Chain{
	1: {
		ID: 1, Name: "ethereum", NativeSymbol: "ETH", NativeName: "Ether", NativeDecimals: 18,
		WrappedNative:   "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		MoralisSlug:     "eth",
		DexScreenerSlug: "ethereum",
	},
	10: {
		ID: 10, Name: "optimism", NativeSymbol: "ETH", NativeName: "Ether", NativeDecimals: 18,
		WrappedNative:   "0x4200000000000000000000000000000000000006",
		MoralisSlug:     "optimism",
		DexScreenerSlug: "optimism",
	},
	56: {
		ID: 56, Name: "bsc", NativeSymbol: "BNB", NativeName: "BNB", NativeDecimals: 18,
		WrappedNative:   "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c",
		MoralisSlug:     "bsc",
		DexScreenerSlug: "bsc",
	},
	137: {
		ID: 137, Name: "polygon", NativeSymbol: "POL", NativeName: "Polygon Ecosystem Token", NativeDecimals: 18,
		WrappedNative:   "0x0d500b1d8e8ef31e21c99d1db9a6444d3adf1270",
		MoralisSlug:     "polygon",
		DexScreenerSlug: "polygon",
	},
	8453: {
		ID: 8453, Name: "base", NativeSymbol: "ETH", NativeName: "Ether", NativeDecimals: 18,
		WrappedNative:   "0x4200000000000000000000000000000000000006",
		MoralisSlug:     "base",
		DexScreenerSlug: "base",
	},
	42161: {
		ID: 42161, Name: "arbitrum", NativeSymbol: "ETH", NativeName: "Ether", NativeDecimals: 18,
		WrappedNative:   "0x82af49447d8a07e3bd95bd0d56f35241523fbab1",
		MoralisSlug:     "arbitrum",
		DexScreenerSlug: "arbitrum",
	},
	43114: {
		ID: 43114, Name: "avalanche", NativeSymbol: "AVAX", NativeName: "Avalanche", NativeDecimals: 18,
		WrappedNative:   "0xb31f66aa3c1e785363f0875a1b74e27b85fd66c7",
		MoralisSlug:     "avalanche",
		DexScreenerSlug: "avalanche",
	},
}

// ChainByID returns the registry entry for a chain id.
func ChainByID(id int64) (Chain, bool) {
	c, ok := chains[id]
	return c, ok
}

// SupportedChain reports whether the chain id is in the registry.
func SupportedChain(id int64) bool {
	_, ok := chains[id]
	return ok
}

// SupportedChainIDs returns all registry chain ids, unordered.
func SupportedChainIDs() []int64 {
	ids := make([]int64, 0, len(chains))
	for id := range chains {
		ids = append(ids, id)
	}
	return ids
}
