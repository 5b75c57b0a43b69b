package pricefeed

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"liquidityAgent/internal/dex"
	agenterrors "liquidityAgent/internal/errors"
	"liquidityAgent/internal/tickmath"
)

// DecimalsReader returns token decimals.
type DecimalsReader interface {
	Decimals(ctx context.Context, address common.Address) (uint8, error)
}

// PoolFeed prices a pair from the slot0 of its concentrated-liquidity pool.
// The pair identifier is the pool address; the price is token0 in token1.
type PoolFeed struct {
	reader   dex.ContractReader
	decimals DecimalsReader
}

func NewPoolFeed(reader dex.ContractReader, decimals DecimalsReader) *PoolFeed {
	return &PoolFeed{reader: reader, decimals: decimals}
}

func (f *PoolFeed) CurrentPrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	if !common.IsHexAddress(pair) {
		return decimal.Zero, agenterrors.Newf(agenterrors.CodeInvalidInput, "pool address %q is not a hex address", pair)
	}
	state, err := dex.FetchPoolState(ctx, f.reader, common.HexToAddress(pair))
	if err != nil {
		return decimal.Zero, agenterrors.Wrap(agenterrors.CodePriceFeed, err, "read pool "+pair)
	}

	decimals0, err := f.decimals.Decimals(ctx, common.HexToAddress(state.Token0))
	if err != nil {
		return decimal.Zero, err
	}
	decimals1, err := f.decimals.Decimals(ctx, common.HexToAddress(state.Token1))
	if err != nil {
		return decimal.Zero, err
	}

	raw, ok := new(big.Int).SetString(state.SqrtPriceX96, 10)
	if !ok {
		return decimal.Zero, agenterrors.Newf(agenterrors.CodePriceFeed, "bad sqrt price %q", state.SqrtPriceX96)
	}
	price, err := tickmath.SqrtPriceX96ToPrice(raw, decimals0, decimals1)
	if err != nil {
		return decimal.Zero, agenterrors.Wrap(agenterrors.CodePriceFeed, err, "convert sqrt price")
	}
	return price, nil
}
