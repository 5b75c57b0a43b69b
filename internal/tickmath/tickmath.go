package tickmath

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	MinTick int32 = -887272 // lowest tick usable by any pool
	MaxTick int32 = -MinTick
)

var (
	MinSqrtRatio = uint256.NewInt(4295128739)
	MaxSqrtRatio = mustFromDecimal("1461446703485210103287273052203988822378723970342")
	MaxUint256   = uint256.MustFromHex("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	q32  = uint256.NewInt(1 << 32)
	q128 = uint256.MustFromHex("0x100000000000000000000000000000000")

	magicSqrt10001 = uint256.MustFromHex("0x3627a301d71055774c85")
	magicTickLow   = uint256.MustFromHex("0x28f6481ab7f045a5af012a19d003aaa")
	magicTickHigh  = uint256.MustFromHex("0xdb2df09e81959a81455e260799a0632f")
)

// tickFactors[i] is 1/sqrt(1.0001)^(2^i) as a Q128.128.
var tickFactors = []*uint256.Int{
	uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
	uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
	uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
	uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
	uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
	uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
	uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
	uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
	uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
	uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
	uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
	uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
	uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
	uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
	uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
	uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
	uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
	uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
	uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
	uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
}

func mustFromDecimal(s string) *uint256.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("tickmath: bad decimal constant " + s)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		panic("tickmath: constant overflows uint256 " + s)
	}
	return out
}

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) as a Q64.96, rounded up like the pool contracts.
func GetSqrtRatioAtTick(tick int32) (*uint256.Int, error) {
	absTick := int64(tick)
	if absTick < 0 {
		absTick = -absTick
	}
	if absTick > int64(MaxTick) {
		return nil, fmt.Errorf("tick %d out of range", tick)
	}

	ratio := new(uint256.Int)
	if absTick&1 != 0 {
		ratio.Set(tickFactors[0])
	} else {
		ratio.Set(q128)
	}
	for i := 1; i < len(tickFactors); i++ {
		if absTick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, tickFactors[i])
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Div(MaxUint256, ratio)
	}

	out := new(uint256.Int).Rsh(ratio, 32)
	if !new(uint256.Int).Mod(ratio, q32).IsZero() {
		out.AddUint64(out, 1)
	}
	return out, nil
}

// GetTickAtSqrtRatio returns the greatest tick whose sqrt ratio is <= sqrtPriceX96.
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int32, error) {
	if sqrtPriceX96 == nil {
		return 0, fmt.Errorf("sqrt price is nil")
	}
	if sqrtPriceX96.Lt(MinSqrtRatio) || !sqrtPriceX96.Lt(MaxSqrtRatio) {
		return 0, fmt.Errorf("sqrt price %s out of range", sqrtPriceX96.ToBig().String())
	}

	ratio := new(uint256.Int).Lsh(sqrtPriceX96, 32)
	msb := uint(ratio.BitLen() - 1)

	r := new(uint256.Int)
	if msb >= 128 {
		r.Rsh(ratio, msb-127)
	} else {
		r.Lsh(ratio, 127-msb)
	}

	// log2 is a signed Q64.64 held in two's complement.
	log2 := new(uint256.Int).Sub(uint256.NewInt(uint64(msb)), uint256.NewInt(128))
	log2.Lsh(log2, 64)

	f := new(uint256.Int)
	for i := uint(0); i < 14; i++ {
		r.Mul(r, r)
		r.Rsh(r, 127)
		f.Rsh(r, 128)
		log2.Or(log2, new(uint256.Int).Lsh(f, 63-i))
		r.Rsh(r, uint(f.Uint64()))
	}

	logSqrt10001 := new(uint256.Int).Mul(log2, magicSqrt10001)

	low := new(uint256.Int).Sub(logSqrt10001, magicTickLow)
	low.SRsh(low, 128)
	high := new(uint256.Int).Add(logSqrt10001, magicTickHigh)
	high.SRsh(high, 128)

	tickLow := int32(int64(low.Uint64()))
	tickHigh := int32(int64(high.Uint64()))
	if tickLow == tickHigh {
		return tickLow, nil
	}

	atHigh, err := GetSqrtRatioAtTick(tickHigh)
	if err != nil {
		return tickLow, nil
	}
	if !sqrtPriceX96.Lt(atHigh) {
		return tickHigh, nil
	}
	return tickLow, nil
}

// FloorToSpacing rounds tick down to a multiple of spacing, toward negative infinity.
func FloorToSpacing(tick, spacing int32) int32 {
	if spacing <= 0 {
		return tick
	}
	q := tick / spacing
	if tick%spacing != 0 && tick < 0 {
		q--
	}
	return q * spacing
}
