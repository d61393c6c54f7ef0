package domain

// SignalKind identifies a token signal detector.
type SignalKind string

const (
	SignalLiquidityDrop SignalKind = "LIQUIDITY_DROP"
	SignalWhaleTransfer SignalKind = "WHALE_TRANSFER"
)

// TokenSignal is one triggered detector observation for a token.
// Signals are single-source, single-threshold; they share the scan cache
// primitive keyed by chainId:tokenAddress.
type TokenSignal struct {
	ChainID     int64      `json:"chainId"`
	Token       string     `json:"token"` // lower-cased contract address
	Kind        SignalKind `json:"kind"`
	Observed    float64    `json:"observed"` // liquidity USD or transfer USD
	Baseline    float64    `json:"baseline,omitempty"`
	DropPct     float64    `json:"dropPct,omitempty"`
	TxHash      string     `json:"txHash,omitempty"`
	TriggeredAt int64      `json:"triggeredAt"` // Unix timestamp in milliseconds
}
