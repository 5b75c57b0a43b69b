package tickmath

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// pricePrecision is the number of decimal places kept when a tick is turned back into a price.
const pricePrecision = 18

var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// EncodeSqrtRatioX96 returns floor(sqrt(amount1 / amount0)) as a Q64.96.
func EncodeSqrtRatioX96(amount1, amount0 *big.Int) (*big.Int, error) {
	if amount0 == nil || amount1 == nil {
		return nil, fmt.Errorf("amounts are required")
	}
	if amount0.Sign() <= 0 || amount1.Sign() <= 0 {
		return nil, fmt.Errorf("amounts must be positive: amount0=%s amount1=%s", amount0, amount1)
	}
	numerator := new(big.Int).Lsh(amount1, 192)
	ratioX192 := numerator.Quo(numerator, amount0)
	return ratioX192.Sqrt(ratioX192), nil
}

// PriceToTick converts a price of token0 in token1 into the tick that contains it.
// Both sides are scaled to base units before encoding.
func PriceToTick(price decimal.Decimal, decimals0, decimals1 uint8) (int32, error) {
	sqrtPrice, err := PriceToSqrtRatioX96(price, decimals0, decimals1)
	if err != nil {
		return 0, err
	}
	sqrtU, overflow := uint256.FromBig(sqrtPrice)
	if overflow {
		return 0, fmt.Errorf("sqrt price overflow for price %s", price)
	}
	return GetTickAtSqrtRatio(sqrtU)
}

// SqrtPriceX96ToPrice converts a pool sqrt price into a human price of token0 in token1.
func SqrtPriceX96ToPrice(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) (decimal.Decimal, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("sqrt price must be positive")
	}
	num := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	raw := decimal.NewFromBigInt(num, 0).DivRound(decimal.NewFromBigInt(q192, 0), pricePrecision+int32(decimals1))
	return raw.Shift(int32(decimals0) - int32(decimals1)).Round(pricePrecision), nil
}

// TickToPrice returns the lower edge price of tick.
func TickToPrice(tick int32, decimals0, decimals1 uint8) (decimal.Decimal, error) {
	sqrtPrice, err := GetSqrtRatioAtTick(tick)
	if err != nil {
		return decimal.Zero, err
	}
	return SqrtPriceX96ToPrice(sqrtPrice.ToBig(), decimals0, decimals1)
}
