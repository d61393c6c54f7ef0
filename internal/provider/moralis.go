package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"swaperex-scan/internal/domain"
)

// DefaultMoralisBaseURL is the Moralis Web3 Data API endpoint.
const DefaultMoralisBaseURL = "https://deep-index.moralis.io/api/v2.2"

// MoralisProvider discovers wallet holdings through the Moralis aggregator
// API. One call returns balances, metadata and USD prices together, which
// makes it the preferred first provider in the fallback chain.
type MoralisProvider struct {
	apiKey  string
	client  *http.Client
	baseURL string
}

// MoralisOption configures MoralisProvider.
type MoralisOption func(*MoralisProvider)

// WithMoralisBaseURL overrides the API endpoint. Test hook.
func WithMoralisBaseURL(url string) MoralisOption {
	return func(p *MoralisProvider) {
		p.baseURL = strings.TrimRight(url, "/")
	}
}

// WithMoralisHTTPClient sets a custom http.Client.
func WithMoralisHTTPClient(client *http.Client) MoralisOption {
	return func(p *MoralisProvider) {
		p.client = client
	}
}

// NewMoralis creates the Moralis adapter. An empty API key yields an
// adapter that supports no chains, which the orchestrator skips.
func NewMoralis(apiKey string, opts ...MoralisOption) *MoralisProvider {
	p := &MoralisProvider{
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultRequestTimeout},
		baseURL: DefaultMoralisBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *MoralisProvider) Name() string { return "moralis" }

// Supports implements Provider.
func (p *MoralisProvider) Supports(chainID int64) bool {
	if p.apiKey == "" {
		return false
	}
	chain, ok := domain.ChainByID(chainID)
	return ok && chain.MoralisSlug != ""
}

// moralisTokensResponse is the raw wallet-tokens payload.
type moralisTokensResponse struct {
	Result []moralisToken `json:"result"`
}

type moralisToken struct {
	TokenAddress     string   `json:"token_address"`
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Decimals         int      `json:"decimals"`
	Balance          string   `json:"balance"`
	UsdPrice         *float64 `json:"usd_price"`
	NativeToken      bool     `json:"native_token"`
	VerifiedContract bool     `json:"verified_contract"`
	PossibleSpam     bool     `json:"possible_spam"`
}

// Fetch implements Provider. The spam flag Moralis supplies is advisory
// only; the pipeline applies the full filter regardless.
func (p *MoralisProvider) Fetch(ctx context.Context, chainID int64, wallet string) (*Result, error) {
	chain, ok := domain.ChainByID(chainID)
	if !ok || chain.MoralisSlug == "" {
		return nil, fmt.Errorf("moralis does not serve chain %d", chainID)
	}

	url := fmt.Sprintf("%s/wallets/%s/tokens?chain=%s&limit=100",
		p.baseURL, domain.NormalizeAddress(wallet), chain.MoralisSlug)

	var payload moralisTokensResponse
	headers := map[string]string{"X-API-Key": p.apiKey}
	if err := getJSON(ctx, p.client, url, headers, &payload); err != nil {
		return nil, fmt.Errorf("moralis: %w", err)
	}

	result := &Result{}
	for _, t := range payload.Result {
		address := domain.NormalizeAddress(t.TokenAddress)
		if t.NativeToken {
			address = domain.NativeTokenAddress
		}

		token := domain.RawToken{
			ChainID:  chainID,
			Address:  address,
			Symbol:   t.Symbol,
			Name:     t.Name,
			Decimals: t.Decimals,
			Balance:  t.Balance,
			UsdPrice: t.UsdPrice,
			Verified: t.VerifiedContract,
			Native:   t.NativeToken,
		}
		result.Tokens = append(result.Tokens, token)
	}

	return result, nil
}

// Compile-time interface check.
var _ Provider = (*MoralisProvider)(nil)
