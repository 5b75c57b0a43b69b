package dex

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	agenterrors "liquidityAgent/internal/errors"
)

// ParseTokenAmount converts a human amount into base units, truncating extra precision.
// The result is always positive.
func ParseTokenAmount(human string, decimals uint8) (*big.Int, error) {
	human = strings.TrimSpace(human)
	if human == "" {
		return nil, agenterrors.New(agenterrors.CodeInvalidAmount, "amount is required")
	}
	value, err := decimal.NewFromString(human)
	if err != nil {
		return nil, agenterrors.Wrap(agenterrors.CodeInvalidAmount, err, "invalid amount "+human)
	}
	base := value.Shift(int32(decimals)).Truncate(0).BigInt()
	if base.Sign() <= 0 {
		return nil, agenterrors.Newf(agenterrors.CodeInvalidAmount, "amount %s must be positive in base units", human)
	}
	return base, nil
}

// FormatTokenAmount renders base units with the token's decimals.
func FormatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}
