package model

// SwapRecord is one journaled swap attempt.
type SwapRecord struct {
	ChainID   uint64      `json:"chain_id"`
	Wallet    string      `json:"wallet"`
	Intent    SwapIntent  `json:"intent"`
	Outcome   SwapOutcome `json:"outcome"`
	Timestamp int64       `json:"timestamp"`
}

// RangeRecord is one journaled range recommendation.
type RangeRecord struct {
	ChainID        uint64              `json:"chain_id"`
	Recommendation RangeRecommendation `json:"recommendation"`
	Timestamp      int64               `json:"timestamp"`
}
