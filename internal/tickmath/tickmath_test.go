package tickmath

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

func TestGetSqrtRatioAtTickBounds(t *testing.T) {
	cases := []struct {
		tick int32
		want string
	}{
		{tick: 0, want: "79228162514264337593543950336"},
		{tick: MinTick, want: "4295128739"},
		{tick: MaxTick, want: "1461446703485210103287273052203988822378723970342"},
	}
	for _, tc := range cases {
		got, err := GetSqrtRatioAtTick(tc.tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tc.tick, err)
		}
		if got.ToBig().String() != tc.want {
			t.Fatalf("tick %d: got %s want %s", tc.tick, got.ToBig().String(), tc.want)
		}
	}
}

func TestGetSqrtRatioAtTickOutOfRange(t *testing.T) {
	if _, err := GetSqrtRatioAtTick(MaxTick + 1); err == nil {
		t.Fatalf("expected error above max tick")
	}
	if _, err := GetSqrtRatioAtTick(MinTick - 1); err == nil {
		t.Fatalf("expected error below min tick")
	}
}

func TestGetTickAtSqrtRatioBounds(t *testing.T) {
	tick, err := GetTickAtSqrtRatio(MinSqrtRatio)
	if err != nil {
		t.Fatalf("min ratio: %v", err)
	}
	if tick != MinTick {
		t.Fatalf("min ratio tick: got %d", tick)
	}

	almostMax := new(uint256.Int).SubUint64(MaxSqrtRatio, 1)
	tick, err = GetTickAtSqrtRatio(almostMax)
	if err != nil {
		t.Fatalf("max ratio: %v", err)
	}
	if tick != MaxTick-1 {
		t.Fatalf("max ratio tick: got %d", tick)
	}

	if _, err := GetTickAtSqrtRatio(MaxSqrtRatio); err == nil {
		t.Fatalf("expected error at max sqrt ratio")
	}
	if _, err := GetTickAtSqrtRatio(new(uint256.Int).SubUint64(MinSqrtRatio, 1)); err == nil {
		t.Fatalf("expected error below min sqrt ratio")
	}
}

func TestTickRoundTrip(t *testing.T) {
	ticks := []int32{MinTick, -500000, -60000, -4055, -100, -51, -50, -39, -1, 0, 1, 38, 61, 4053, 60000, 500000, MaxTick - 1}
	for _, tick := range ticks {
		ratio, err := GetSqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		got, err := GetTickAtSqrtRatio(ratio)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("exact ratio of tick %d mapped to %d", tick, got)
		}

		above := new(uint256.Int).AddUint64(ratio, 1)
		if got, _ := GetTickAtSqrtRatio(above); got != tick {
			t.Fatalf("ratio just above tick %d mapped to %d", tick, got)
		}

		if tick > MinTick {
			below := new(uint256.Int).SubUint64(ratio, 1)
			if got, _ := GetTickAtSqrtRatio(below); got != tick-1 {
				t.Fatalf("ratio just below tick %d mapped to %d", tick, got)
			}
		}
	}
}

func TestFloorToSpacing(t *testing.T) {
	cases := []struct {
		tick    int32
		spacing int32
		want    int32
	}{
		{tick: 0, spacing: 50, want: 0},
		{tick: 49, spacing: 50, want: 0},
		{tick: 50, spacing: 50, want: 50},
		{tick: 61, spacing: 50, want: 50},
		{tick: -1, spacing: 50, want: -50},
		{tick: -39, spacing: 50, want: -50},
		{tick: -50, spacing: 50, want: -50},
		{tick: -51, spacing: 50, want: -100},
		{tick: 4053, spacing: 200, want: 4000},
		{tick: -4053, spacing: 200, want: -4200},
	}
	for _, tc := range cases {
		if got := FloorToSpacing(tc.tick, tc.spacing); got != tc.want {
			t.Fatalf("floor(%d, %d): got %d want %d", tc.tick, tc.spacing, got, tc.want)
		}
	}
}

func TestEncodeSqrtRatioX96(t *testing.T) {
	one := big.NewInt(1_000_000)
	got, err := EncodeSqrtRatioX96(one, one)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got.String() != "79228162514264337593543950336" {
		t.Fatalf("1:1 ratio: got %s", got.String())
	}

	got, err = EncodeSqrtRatioX96(big.NewInt(4), big.NewInt(1))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := new(big.Int).Lsh(big.NewInt(2), 96)
	if got.Cmp(want) != 0 {
		t.Fatalf("4:1 ratio: got %s want %s", got, want)
	}

	if _, err := EncodeSqrtRatioX96(big.NewInt(0), one); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestPriceToTick(t *testing.T) {
	cases := []struct {
		price string
		want  int32
	}{
		{price: "1", want: 0},
		{price: "0.996194", want: -39},
		{price: "1.006206", want: 61},
		{price: "1.49985", want: 4053},
		{price: "1.50015", want: 4055},
	}
	for _, tc := range cases {
		got, err := PriceToTick(decimal.RequireFromString(tc.price), 6, 6)
		if err != nil {
			t.Fatalf("price %s: %v", tc.price, err)
		}
		if got != tc.want {
			t.Fatalf("price %s: got %d want %d", tc.price, got, tc.want)
		}
	}
}

func TestPriceToTickRejectsDust(t *testing.T) {
	if _, err := PriceToTick(decimal.RequireFromString("0.0000001"), 6, 6); err == nil {
		t.Fatalf("expected error for price below one base unit")
	}
	if _, err := PriceToTick(decimal.Zero, 6, 6); err == nil {
		t.Fatalf("expected error for zero price")
	}
}

func TestTickToPrice(t *testing.T) {
	price, err := TickToPrice(0, 6, 6)
	if err != nil {
		t.Fatalf("tick to price: %v", err)
	}
	if !price.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("tick 0 price: %s", price)
	}

	// 1.0001^100 ~= 1.01005
	price, err = TickToPrice(100, 6, 6)
	if err != nil {
		t.Fatalf("tick to price: %v", err)
	}
	diff := price.Sub(decimal.RequireFromString("1.010049662")).Abs()
	if diff.GreaterThan(decimal.RequireFromString("0.000001")) {
		t.Fatalf("tick 100 price: %s", price)
	}
}

func TestSqrtPriceX96ToPriceDecimals(t *testing.T) {
	// 1 WETH (18) = 2000 USDC (6): raw ratio 2000e6 / 1e18.
	sqrtPrice, err := EncodeSqrtRatioX96(big.NewInt(2_000_000_000), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	price, err := SqrtPriceX96ToPrice(sqrtPrice, 18, 6)
	if err != nil {
		t.Fatalf("to price: %v", err)
	}
	diff := price.Sub(decimal.NewFromInt(2000)).Abs()
	if diff.GreaterThan(decimal.RequireFromString("0.000001")) {
		t.Fatalf("price mismatch: %s", price)
	}
}
