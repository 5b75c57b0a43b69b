package dex

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"liquidityAgent/internal/model"
)

// FetchPoolState reads tokens, tick spacing and slot0 of a concentrated-liquidity pool.
func FetchPoolState(ctx context.Context, reader ContractReader, pool common.Address) (model.PoolState, error) {
	poolABI, err := CLPoolABI()
	if err != nil {
		return model.PoolState{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := callMethod(ctx, reader, pool, poolABI, "token0")
	if err != nil {
		return model.PoolState{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("token0: %w", err)
	}

	values, err = callMethod(ctx, reader, pool, poolABI, "token1")
	if err != nil {
		return model.PoolState{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("token1: %w", err)
	}

	values, err = callMethod(ctx, reader, pool, poolABI, "tickSpacing")
	if err != nil {
		return model.PoolState{}, err
	}
	spacingInt, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick spacing: %w", err)
	}
	spacing, err := int24FromBig(spacingInt)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick spacing: %w", err)
	}

	values, err = callMethod(ctx, reader, pool, poolABI, "slot0")
	if err != nil {
		return model.PoolState{}, err
	}
	if len(values) < 2 {
		return model.PoolState{}, fmt.Errorf("slot0 returned %d values", len(values))
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("sqrt price: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick: %w", err)
	}

	return model.PoolState{
		Address:      pool.Hex(),
		Token0:       token0.Hex(),
		Token1:       token1.Hex(),
		TickSpacing:  spacing,
		SqrtPriceX96: sqrtPrice.String(),
		Tick:         tick,
	}, nil
}
