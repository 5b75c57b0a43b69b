package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"liquidityAgent/internal/chain"
	agenterrors "liquidityAgent/internal/errors"
)

const DefaultDexScreenerURL = "https://api.dexscreener.com"

// DexScreenerConfig configures the HTTP price feed.
type DexScreenerConfig struct {
	BaseURL      string
	Chain        string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// DexScreenerFeed reads the USD price of a pair from the DexScreener API.
type DexScreenerFeed struct {
	client       *http.Client
	baseURL      string
	chain        string
	maxRetries   int
	retryBackoff time.Duration
	logger       *zap.Logger
}

type dexScreenerResponse struct {
	Pairs []struct {
		PairAddress string `json:"pairAddress"`
		PriceUSD    string `json:"priceUsd"`
		PriceNative string `json:"priceNative"`
	} `json:"pairs"`
}

func NewDexScreenerFeed(cfg DexScreenerConfig, logger *zap.Logger) *DexScreenerFeed {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultDexScreenerURL
	}
	if cfg.Chain == "" {
		cfg.Chain = "base"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DexScreenerFeed{
		client:       &http.Client{Timeout: cfg.Timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		chain:        cfg.Chain,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       logger,
	}
}

// CurrentPrice returns priceUsd of the first pair in the response.
func (f *DexScreenerFeed) CurrentPrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/latest/dex/pairs/%s/%s", f.baseURL, f.chain, pair)

	var body dexScreenerResponse
	err := chain.Retry(ctx, f.maxRetries, f.retryBackoff, func(ctx context.Context) error {
		return f.get(ctx, url, &body)
	})
	if err != nil {
		return decimal.Zero, agenterrors.Wrap(agenterrors.CodePriceFeed, err, "dexscreener "+pair)
	}
	if len(body.Pairs) == 0 {
		return decimal.Zero, agenterrors.New(agenterrors.CodePriceFeed, "no pairs found in dexscreener response")
	}

	price, err := decimal.NewFromString(body.Pairs[0].PriceUSD)
	if err != nil || !price.IsPositive() {
		return decimal.Zero, agenterrors.Newf(agenterrors.CodePriceFeed, "no price data for pair %s", pair)
	}
	f.logger.Debug("dexscreener price", zap.String("pair", pair), zap.String("price", price.String()))
	return price, nil
}

func (f *DexScreenerFeed) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
