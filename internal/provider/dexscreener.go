package provider

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"swaperex-scan/internal/domain"
)

// DefaultDexScreenerBaseURL is the public DexScreener API endpoint.
const DefaultDexScreenerBaseURL = "https://api.dexscreener.com"

// TokenPrice is the DexScreener view of a token: its USD price from the
// deepest matching pair and that pair's liquidity.
type TokenPrice struct {
	PriceUsd     float64
	LiquidityUsd float64
}

// PriceClient looks up token prices on DexScreener. It is both the price
// leg of the explorer adapter and the data source for the liquidity-drop
// signal detector. No API key required.
type PriceClient struct {
	client  *http.Client
	baseURL string
}

// PriceClientOption configures PriceClient.
type PriceClientOption func(*PriceClient)

// WithPriceBaseURL overrides the API endpoint. Test hook.
func WithPriceBaseURL(url string) PriceClientOption {
	return func(c *PriceClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithPriceHTTPClient sets a custom http.Client.
func WithPriceHTTPClient(client *http.Client) PriceClientOption {
	return func(c *PriceClient) {
		c.client = client
	}
}

// NewPriceClient creates a DexScreener price client.
func NewPriceClient(opts ...PriceClientOption) *PriceClient {
	c := &PriceClient{
		client:  &http.Client{Timeout: DefaultRequestTimeout},
		baseURL: DefaultDexScreenerBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// dexPairsResponse is the raw DexScreener token-pairs payload.
type dexPairsResponse struct {
	Pairs []dexPair `json:"pairs"`
}

type dexPair struct {
	ChainID   string `json:"chainId"`
	PriceUsd  string `json:"priceUsd"`
	BaseToken struct {
		Address string `json:"address"`
	} `json:"baseToken"`
	Liquidity struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
}

// TokenPrice returns the USD price of a token on the given chain, taken
// from the highest-liquidity pair where the token is the base asset.
// A token with no pairs returns (nil, nil): unknown price, not an error.
func (c *PriceClient) TokenPrice(ctx context.Context, chainID int64, token string) (*TokenPrice, error) {
	chain, ok := domain.ChainByID(chainID)
	if !ok {
		return nil, fmt.Errorf("unknown chain %d", chainID)
	}

	url := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, domain.NormalizeAddress(token))

	var payload dexPairsResponse
	if err := getJSON(ctx, c.client, url, nil, &payload); err != nil {
		return nil, fmt.Errorf("dexscreener: %w", err)
	}

	var best *TokenPrice
	for _, pair := range payload.Pairs {
		if pair.ChainID != chain.DexScreenerSlug {
			continue
		}
		if !strings.EqualFold(pair.BaseToken.Address, token) {
			continue
		}
		price, err := strconv.ParseFloat(pair.PriceUsd, 64)
		if err != nil || price <= 0 {
			continue
		}
		if best == nil || pair.Liquidity.Usd > best.LiquidityUsd {
			best = &TokenPrice{PriceUsd: price, LiquidityUsd: pair.Liquidity.Usd}
		}
	}

	return best, nil
}
