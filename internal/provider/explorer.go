package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"swaperex-scan/internal/domain"
	"swaperex-scan/internal/pipeline"
)

// DefaultExplorerBaseURL is the Etherscan v2 multichain endpoint; the
// chain is selected with the chainid query parameter.
const DefaultExplorerBaseURL = "https://api.etherscan.io/v2/api"

// DefaultMaxContracts caps how many candidate contracts the transfer
// history may yield before balance lookups start.
const DefaultMaxContracts = 100

// errNoRecords marks the explorer's "No transactions found" answer, which
// is a definitive empty result, not a transport failure.
var errNoRecords = errors.New("no records")

// ExplorerProvider discovers holdings through an Etherscan-family block
// explorer: enumerate token-transfer history for candidate contracts, then
// query balance per contract and price per token in bounded batches. It
// works without an API key at a degraded rate, so it serves as the
// terminal provider in the fallback chain.
type ExplorerProvider struct {
	apiKey       string
	client       *http.Client
	baseURL      string
	prices       *PriceClient
	spam         *pipeline.SpamMatcher
	batchSize    int
	maxContracts int
	logger       *log.Logger
}

// ExplorerOption configures ExplorerProvider.
type ExplorerOption func(*ExplorerProvider)

// WithExplorerBaseURL overrides the API endpoint. Test hook.
func WithExplorerBaseURL(u string) ExplorerOption {
	return func(p *ExplorerProvider) {
		p.baseURL = strings.TrimRight(u, "/")
	}
}

// WithExplorerHTTPClient sets a custom http.Client.
func WithExplorerHTTPClient(client *http.Client) ExplorerOption {
	return func(p *ExplorerProvider) {
		p.client = client
	}
}

// WithExplorerBatchSize bounds concurrent balance/price sub-fetches.
func WithExplorerBatchSize(n int) ExplorerOption {
	return func(p *ExplorerProvider) {
		p.batchSize = n
	}
}

// WithExplorerMaxContracts caps candidate contracts from transfer history.
func WithExplorerMaxContracts(n int) ExplorerOption {
	return func(p *ExplorerProvider) {
		p.maxContracts = n
	}
}

// WithExplorerLogger sets the logger for degraded sub-fetches.
func WithExplorerLogger(logger *log.Logger) ExplorerOption {
	return func(p *ExplorerProvider) {
		p.logger = logger
	}
}

// NewExplorer creates the block-explorer adapter.
func NewExplorer(apiKey string, prices *PriceClient, opts ...ExplorerOption) *ExplorerProvider {
	p := &ExplorerProvider{
		apiKey:       apiKey,
		client:       &http.Client{Timeout: DefaultRequestTimeout},
		baseURL:      DefaultExplorerBaseURL,
		prices:       prices,
		spam:         pipeline.DefaultSpamMatcher(),
		batchSize:    DefaultBatchSize,
		maxContracts: DefaultMaxContracts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *ExplorerProvider) Name() string { return "explorer" }

// Supports implements Provider. The v2 endpoint serves every registry
// chain, keyed or keyless.
func (p *ExplorerProvider) Supports(chainID int64) bool {
	return domain.SupportedChain(chainID)
}

// esEnvelope is the explorer's uniform response wrapper.
type esEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// TokenTransfer is one row of the tokentx transfer history.
type TokenTransfer struct {
	ContractAddress string `json:"contractAddress"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenName       string `json:"tokenName"`
	TokenDecimal    string `json:"tokenDecimal"`
	Hash            string `json:"hash"`
	TimeStamp       string `json:"timeStamp"`
}

// call performs one explorer API call and unwraps the envelope.
func (p *ExplorerProvider) call(ctx context.Context, chainID int64, params map[string]string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("chainid", strconv.FormatInt(chainID, 10))
	if p.apiKey != "" {
		q.Set("apikey", p.apiKey)
	}
	for k, v := range params {
		q.Set(k, v)
	}

	var envelope esEnvelope
	if err := getJSON(ctx, p.client, p.baseURL+"?"+q.Encode(), nil, &envelope); err != nil {
		return nil, err
	}

	if envelope.Status != "1" {
		if strings.Contains(envelope.Message, "No transactions found") ||
			strings.Contains(envelope.Message, "No token transfers found") {
			return nil, errNoRecords
		}
		return nil, fmt.Errorf("explorer status %q: %s", envelope.Status, envelope.Message)
	}
	return envelope.Result, nil
}

// candidate is a contract discovered in transfer history, pending a
// balance check.
type candidate struct {
	address  string
	symbol   string
	name     string
	decimals int
}

// Fetch implements Provider.
func (p *ExplorerProvider) Fetch(ctx context.Context, chainID int64, wallet string) (*Result, error) {
	chain, ok := domain.ChainByID(chainID)
	if !ok {
		return nil, fmt.Errorf("explorer does not serve chain %d", chainID)
	}
	wallet = domain.NormalizeAddress(wallet)

	result := &Result{}

	nativeBalance, err := p.nativeBalance(ctx, chainID, wallet)
	if err != nil {
		return nil, fmt.Errorf("explorer native balance: %w", err)
	}

	candidates, truncated, err := p.discoverContracts(ctx, chainID, wallet)
	if err != nil {
		return nil, fmt.Errorf("explorer transfer history: %w", err)
	}
	if truncated {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("token discovery truncated to %d contracts", p.maxContracts))
	}

	balances := make([]string, len(candidates))
	if err := forEachBatch(ctx, len(candidates), p.batchSize, func(ctx context.Context, i int) {
		balance, err := p.tokenBalance(ctx, chainID, candidates[i].address, wallet)
		if err != nil {
			// Degrades this token only; the scan continues without it.
			p.logf("token balance %s: %v", candidates[i].address, err)
			return
		}
		balances[i] = balance
	}); err != nil {
		return nil, err
	}

	tokens := make([]domain.RawToken, 0, len(candidates)+1)
	pricing := make([]string, 0, len(candidates)+1)

	if nativeBalance != "" && !domain.IsZeroBalance(nativeBalance) {
		tokens = append(tokens, domain.RawToken{
			ChainID:  chainID,
			Address:  domain.NativeTokenAddress,
			Symbol:   chain.NativeSymbol,
			Name:     chain.NativeName,
			Decimals: chain.NativeDecimals,
			Balance:  nativeBalance,
			Verified: true,
			Native:   true,
		})
		pricing = append(pricing, chain.WrappedNative)
	}

	for i, c := range candidates {
		if balances[i] == "" || domain.IsZeroBalance(balances[i]) {
			continue
		}
		tokens = append(tokens, domain.RawToken{
			ChainID:  chainID,
			Address:  c.address,
			Symbol:   c.symbol,
			Name:     c.name,
			Decimals: c.decimals,
			Balance:  balances[i],
		})
		pricing = append(pricing, c.address)
	}

	if err := forEachBatch(ctx, len(tokens), p.batchSize, func(ctx context.Context, i int) {
		price, err := p.prices.TokenPrice(ctx, chainID, pricing[i])
		if err != nil {
			p.logf("price lookup %s: %v", pricing[i], err)
			return
		}
		if price != nil {
			tokens[i].UsdPrice = &price.PriceUsd
		}
	}); err != nil {
		return nil, err
	}

	result.Tokens = tokens
	return result, nil
}

// nativeBalance fetches the wallet's native coin balance in wei.
func (p *ExplorerProvider) nativeBalance(ctx context.Context, chainID int64, wallet string) (string, error) {
	raw, err := p.call(ctx, chainID, map[string]string{
		"module":  "account",
		"action":  "balance",
		"address": wallet,
		"tag":     "latest",
	})
	if errors.Is(err, errNoRecords) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var balance string
	if err := json.Unmarshal(raw, &balance); err != nil {
		return "", fmt.Errorf("decode balance: %w", err)
	}
	return balance, nil
}

// discoverContracts enumerates transfer history and returns unique
// candidate contracts in discovery order. The first-pass spam check runs
// here so obviously-junk tokens never cost a balance call.
func (p *ExplorerProvider) discoverContracts(ctx context.Context, chainID int64, wallet string) ([]candidate, bool, error) {
	raw, err := p.call(ctx, chainID, map[string]string{
		"module":  "account",
		"action":  "tokentx",
		"address": wallet,
		"page":    "1",
		"offset":  "500",
		"sort":    "desc",
	})
	if errors.Is(err, errNoRecords) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var transfers []TokenTransfer
	if err := json.Unmarshal(raw, &transfers); err != nil {
		return nil, false, fmt.Errorf("decode transfers: %w", err)
	}

	seen := make(map[string]struct{}, len(transfers))
	var candidates []candidate
	truncated := false
	for _, tr := range transfers {
		address := domain.NormalizeAddress(tr.ContractAddress)
		if !domain.ValidAddress(address) {
			continue
		}
		if _, dup := seen[address]; dup {
			continue
		}
		seen[address] = struct{}{}

		if p.spam.MatchesText(tr.TokenSymbol, tr.TokenName) {
			continue
		}

		if len(candidates) >= p.maxContracts {
			truncated = true
			break
		}

		decimals, err := strconv.Atoi(tr.TokenDecimal)
		if err != nil || decimals < 0 {
			decimals = 18
		}
		candidates = append(candidates, candidate{
			address:  address,
			symbol:   tr.TokenSymbol,
			name:     tr.TokenName,
			decimals: decimals,
		})
	}

	return candidates, truncated, nil
}

// tokenBalance fetches one ERC-20 balance in the token's smallest unit.
func (p *ExplorerProvider) tokenBalance(ctx context.Context, chainID int64, contract, wallet string) (string, error) {
	raw, err := p.call(ctx, chainID, map[string]string{
		"module":          "account",
		"action":          "tokenbalance",
		"contractaddress": contract,
		"address":         wallet,
		"tag":             "latest",
	})
	if err != nil {
		return "", err
	}

	var balance string
	if err := json.Unmarshal(raw, &balance); err != nil {
		return "", fmt.Errorf("decode token balance: %w", err)
	}
	return balance, nil
}

// TokenTransfers returns recent transfer rows for one token contract.
// Used by the whale-transfer signal detector, which shares this client.
func (p *ExplorerProvider) TokenTransfers(ctx context.Context, chainID int64, token string, limit int) ([]TokenTransfer, error) {
	if limit <= 0 {
		limit = 100
	}
	raw, err := p.call(ctx, chainID, map[string]string{
		"module":          "account",
		"action":          "tokentx",
		"contractaddress": domain.NormalizeAddress(token),
		"page":            "1",
		"offset":          strconv.Itoa(limit),
		"sort":            "desc",
	})
	if errors.Is(err, errNoRecords) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var transfers []TokenTransfer
	if err := json.Unmarshal(raw, &transfers); err != nil {
		return nil, fmt.Errorf("decode transfers: %w", err)
	}
	return transfers, nil
}

func (p *ExplorerProvider) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}

// Compile-time interface check.
var _ Provider = (*ExplorerProvider)(nil)
