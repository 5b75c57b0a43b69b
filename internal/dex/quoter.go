package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	agenterrors "liquidityAgent/internal/errors"
)

// Quote is the expected output of a swap and the pool type that produced it.
type Quote struct {
	AmountOut *big.Int
	Stable    bool
}

// Quoter asks the router for getAmountOut, volatile pool first, then stable.
type Quoter struct {
	reader  ContractReader
	address common.Address
	logger  *zap.Logger
}

func NewQuoter(reader ContractReader, address common.Address, logger *zap.Logger) *Quoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Quoter{reader: reader, address: address, logger: logger}
}

// Quote returns the first non-zero quote. Errors carry QUOTE_UNAVAILABLE.
func (q *Quoter) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (Quote, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return Quote{}, agenterrors.New(agenterrors.CodeInvalidAmount, "quote amount must be positive")
	}
	parsed, err := QuoterABI()
	if err != nil {
		return Quote{}, fmt.Errorf("parse quoter abi: %w", err)
	}

	var lastErr error
	for _, stable := range []bool{false, true} {
		values, err := callMethod(ctx, q.reader, q.address, parsed, "getAmountOut", tokenIn, tokenOut, stable, amountIn)
		if err != nil {
			lastErr = err
			q.logger.Debug("quote failed", zap.Bool("stable", stable), zap.Error(err))
			continue
		}
		amountOut, err := asBigInt(values[0])
		if err != nil {
			lastErr = err
			continue
		}
		if amountOut.Sign() == 0 {
			lastErr = fmt.Errorf("zero output for stable=%t", stable)
			continue
		}
		return Quote{AmountOut: amountOut, Stable: stable}, nil
	}
	return Quote{}, agenterrors.Wrap(agenterrors.CodeQuoteUnavailable, lastErr, "no pool quoted "+tokenIn.Hex()+" -> "+tokenOut.Hex())
}
