package model

import "github.com/shopspring/decimal"

// TickRange is a pair of ticks, each a multiple of the pool tick spacing.
type TickRange struct {
	TickLower int32 `json:"tickLower"`
	TickUpper int32 `json:"tickUpper"`
}

// PriceRange is the symmetric price band a TickRange was derived from.
type PriceRange struct {
	Lower decimal.Decimal `json:"lower"`
	Upper decimal.Decimal `json:"upper"`
}

// RangeRecommendation is the full answer of a range request.
type RangeRecommendation struct {
	Pair             string          `json:"pair"`
	CurrentPrice     decimal.Decimal `json:"currentPrice"`
	Volatility       decimal.Decimal `json:"volatility"`
	TickSpacing      int32           `json:"tickSpacing"`
	RecommendedRange PriceRange      `json:"recommendedRange"`
	TickRange        TickRange       `json:"tickRange"`
}

// LiquidityResult reports a position mint and the approvals it needed.
type LiquidityResult struct {
	TxHash         string              `json:"txHash"`
	Range          RangeRecommendation `json:"range"`
	Amount0        string              `json:"amount0"`
	Amount1        string              `json:"amount1"`
	ApprovalHashes []string            `json:"approvalHashes,omitempty"`
}
