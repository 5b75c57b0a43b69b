package tickmath

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var q96 = new(big.Int).Lsh(big.NewInt(1), 96)

// PriceToSqrtRatioX96 encodes a price of token0 in token1 as a pool sqrt price.
func PriceToSqrtRatioX96(price decimal.Decimal, decimals0, decimals1 uint8) (*big.Int, error) {
	if !price.IsPositive() {
		return nil, fmt.Errorf("price must be positive: %s", price)
	}
	amount0 := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals0)), nil)
	amount1 := price.Shift(int32(decimals1)).Round(0).BigInt()
	if amount1.Sign() <= 0 {
		return nil, fmt.Errorf("price %s is below the smallest unit of token1", price)
	}
	return EncodeSqrtRatioX96(amount1, amount0)
}

func ordered(sqrtA, sqrtB *big.Int) (*big.Int, *big.Int) {
	if sqrtA.Cmp(sqrtB) > 0 {
		return sqrtB, sqrtA
	}
	return sqrtA, sqrtB
}

func liquidityForAmount0(sqrtA, sqrtB, amount0 *big.Int) *big.Int {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	intermediate := new(big.Int).Mul(sqrtA, sqrtB)
	intermediate.Quo(intermediate, q96)
	out := new(big.Int).Mul(amount0, intermediate)
	return out.Quo(out, new(big.Int).Sub(sqrtB, sqrtA))
}

func liquidityForAmount1(sqrtA, sqrtB, amount1 *big.Int) *big.Int {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	out := new(big.Int).Mul(amount1, q96)
	return out.Quo(out, new(big.Int).Sub(sqrtB, sqrtA))
}

// LiquidityForAmounts returns the most liquidity the two amounts can back in [sqrtA, sqrtB]
// at the current sqrt price.
func LiquidityForAmounts(sqrtPrice, sqrtA, sqrtB, amount0, amount1 *big.Int) (*big.Int, error) {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	if sqrtA.Cmp(sqrtB) == 0 {
		return nil, fmt.Errorf("empty price range")
	}
	switch {
	case sqrtPrice.Cmp(sqrtA) <= 0:
		return liquidityForAmount0(sqrtA, sqrtB, amount0), nil
	case sqrtPrice.Cmp(sqrtB) < 0:
		l0 := liquidityForAmount0(sqrtPrice, sqrtB, amount0)
		l1 := liquidityForAmount1(sqrtA, sqrtPrice, amount1)
		if l0.Cmp(l1) < 0 {
			return l0, nil
		}
		return l1, nil
	default:
		return liquidityForAmount1(sqrtA, sqrtB, amount1), nil
	}
}

func amount0ForLiquidity(sqrtA, sqrtB, liquidity *big.Int) *big.Int {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	out := new(big.Int).Lsh(liquidity, 96)
	out.Mul(out, new(big.Int).Sub(sqrtB, sqrtA))
	out.Quo(out, sqrtB)
	return out.Quo(out, sqrtA)
}

func amount1ForLiquidity(sqrtA, sqrtB, liquidity *big.Int) *big.Int {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	out := new(big.Int).Mul(liquidity, new(big.Int).Sub(sqrtB, sqrtA))
	return out.Quo(out, q96)
}

// AmountsForLiquidity returns the token amounts a position of liquidity holds at sqrtPrice.
func AmountsForLiquidity(sqrtPrice, sqrtA, sqrtB, liquidity *big.Int) (*big.Int, *big.Int) {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	switch {
	case sqrtPrice.Cmp(sqrtA) <= 0:
		return amount0ForLiquidity(sqrtA, sqrtB, liquidity), new(big.Int)
	case sqrtPrice.Cmp(sqrtB) < 0:
		return amount0ForLiquidity(sqrtPrice, sqrtB, liquidity), amount1ForLiquidity(sqrtA, sqrtPrice, liquidity)
	default:
		return new(big.Int), amount1ForLiquidity(sqrtA, sqrtB, liquidity)
	}
}
