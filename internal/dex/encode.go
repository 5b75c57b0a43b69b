package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MaxUint256 is the allowance used for unlimited approvals.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Route is one hop of a router swap.
type Route struct {
	From    common.Address
	To      common.Address
	Stable  bool
	Factory common.Address
}

// MintParams mirrors the position manager mint struct.
type MintParams struct {
	Token0         common.Address
	Token1         common.Address
	TickSpacing    *big.Int
	TickLower      *big.Int
	TickUpper      *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
	SqrtPriceX96   *big.Int
}

// EncodeApprove builds approve(spender, amount) calldata.
func EncodeApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("approve amount must be non-negative")
	}
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	return parsed.Pack("approve", spender, amount)
}

// EncodeSwapExactTokensForTokens builds router calldata for a routed exact-in swap.
func EncodeSwapExactTokensForTokens(amountIn, amountOutMin *big.Int, routes []Route, to common.Address, deadline *big.Int) ([]byte, error) {
	if len(routes) == 0 {
		return nil, fmt.Errorf("at least one route is required")
	}
	parsed, err := RouterABI()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	return parsed.Pack("swapExactTokensForTokens", amountIn, amountOutMin, routes, to, deadline)
}

// EncodeMint builds position manager mint calldata.
func EncodeMint(params MintParams) ([]byte, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse position manager abi: %w", err)
	}
	if params.SqrtPriceX96 == nil {
		params.SqrtPriceX96 = new(big.Int)
	}
	return parsed.Pack("mint", params)
}
