package liquidity

import (
	"github.com/shopspring/decimal"

	agenterrors "liquidityAgent/internal/errors"
	"liquidityAgent/internal/model"
	"liquidityAgent/internal/tickmath"
)

var one = decimal.NewFromInt(1)

// PriceBand returns price*(1-volatility) and price*(1+volatility).
func PriceBand(price, volatility decimal.Decimal) (model.PriceRange, error) {
	if !price.IsPositive() {
		return model.PriceRange{}, agenterrors.Newf(agenterrors.CodeInvalidInput, "price must be positive, got %s", price)
	}
	if !volatility.IsPositive() {
		return model.PriceRange{}, agenterrors.Newf(agenterrors.CodeInvalidInput, "volatility must be positive, got %s", volatility)
	}
	if volatility.GreaterThanOrEqual(one) {
		return model.PriceRange{}, agenterrors.Newf(agenterrors.CodeInvalidInput, "volatility must be below 1, got %s", volatility)
	}
	return model.PriceRange{
		Lower: price.Mul(one.Sub(volatility)),
		Upper: price.Mul(one.Add(volatility)),
	}, nil
}

// RecommendRange converts a symmetric band around price into ticks floored to tickSpacing.
// decimalsA and decimalsB are the decimals of the priced token and the quote token.
func RecommendRange(price, volatility decimal.Decimal, decimalsA, decimalsB uint8, tickSpacing int32) (model.TickRange, error) {
	if tickSpacing <= 0 {
		return model.TickRange{}, agenterrors.Newf(agenterrors.CodeInvalidInput, "tick spacing must be positive, got %d", tickSpacing)
	}
	band, err := PriceBand(price, volatility)
	if err != nil {
		return model.TickRange{}, err
	}

	lower, err := boundToTick(band.Lower, decimalsA, decimalsB, tickSpacing)
	if err != nil {
		return model.TickRange{}, err
	}
	upper, err := boundToTick(band.Upper, decimalsA, decimalsB, tickSpacing)
	if err != nil {
		return model.TickRange{}, err
	}
	if lower >= upper {
		return model.TickRange{TickLower: lower, TickUpper: upper}, agenterrors.Newf(agenterrors.CodeDegenerateRange,
			"price band %s..%s collapses to tick %d with spacing %d", band.Lower, band.Upper, lower, tickSpacing)
	}
	return model.TickRange{TickLower: lower, TickUpper: upper}, nil
}

func boundToTick(price decimal.Decimal, decimalsA, decimalsB uint8, tickSpacing int32) (int32, error) {
	raw, err := tickmath.PriceToTick(price, decimalsA, decimalsB)
	if err != nil {
		return 0, agenterrors.Wrap(agenterrors.CodeInvalidInput, err, "price "+price.String()+" has no tick")
	}
	return tickmath.FloorToSpacing(raw, tickSpacing), nil
}
