package pricefeed

import (
	"context"

	"github.com/shopspring/decimal"

	agenterrors "liquidityAgent/internal/errors"
)

// Fixed returns the same price for every pair.
type Fixed struct {
	Price decimal.Decimal
}

func (f Fixed) CurrentPrice(context.Context, string) (decimal.Decimal, error) {
	if !f.Price.IsPositive() {
		return decimal.Zero, agenterrors.Newf(agenterrors.CodeInvalidInput, "price must be positive, got %s", f.Price)
	}
	return f.Price, nil
}
