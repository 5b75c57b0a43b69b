package liquidity

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"liquidityAgent/internal/model"
)

// PriceFeed returns the current market price of a pair.
type PriceFeed interface {
	CurrentPrice(ctx context.Context, pair string) (decimal.Decimal, error)
}

// RangeConfig holds the pool parameters a recommendation is computed for.
type RangeConfig struct {
	Pair        string
	Volatility  decimal.Decimal
	DecimalsA   uint8
	DecimalsB   uint8
	TickSpacing int32
}

// DefaultRangeConfig is the EURC/USDC stable pool setup: 0.5% band, 6/6 decimals, spacing 50.
func DefaultRangeConfig() RangeConfig {
	return RangeConfig{
		Pair:        "0xE846373C1a92B167b4E9cd5d8E4d6B1Db9E90EC7",
		Volatility:  decimal.RequireFromString("0.005"),
		DecimalsA:   6,
		DecimalsB:   6,
		TickSpacing: 50,
	}
}

// Recommender combines a price feed with RecommendRange.
type Recommender struct {
	feed   PriceFeed
	cfg    RangeConfig
	logger *zap.Logger
}

func NewRecommender(feed PriceFeed, cfg RangeConfig, logger *zap.Logger) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommender{feed: feed, cfg: cfg, logger: logger}
}

// Recommend prices pair (the configured pair when empty) and derives its tick range.
func (r *Recommender) Recommend(ctx context.Context, pair string) (model.RangeRecommendation, error) {
	if pair == "" {
		pair = r.cfg.Pair
	}
	price, err := r.feed.CurrentPrice(ctx, pair)
	if err != nil {
		return model.RangeRecommendation{}, err
	}
	return r.RecommendAt(pair, price)
}

// RecommendAt derives the range for a known price.
func (r *Recommender) RecommendAt(pair string, price decimal.Decimal) (model.RangeRecommendation, error) {
	band, err := PriceBand(price, r.cfg.Volatility)
	if err != nil {
		return model.RangeRecommendation{}, err
	}
	ticks, err := RecommendRange(price, r.cfg.Volatility, r.cfg.DecimalsA, r.cfg.DecimalsB, r.cfg.TickSpacing)
	if err != nil {
		return model.RangeRecommendation{}, err
	}

	r.logger.Info("range recommended",
		zap.String("pair", pair),
		zap.String("price", price.String()),
		zap.Int32("tick_lower", ticks.TickLower),
		zap.Int32("tick_upper", ticks.TickUpper),
	)
	return model.RangeRecommendation{
		Pair:             pair,
		CurrentPrice:     price,
		Volatility:       r.cfg.Volatility,
		TickSpacing:      r.cfg.TickSpacing,
		RecommendedRange: band,
		TickRange:        ticks,
	}, nil
}
