package dex

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBalancesAll(t *testing.T) {
	chain := newFakeChain(t)
	chain.native = new(big.Int).Mul(big.NewInt(15), big.NewInt(1e17))
	chain.on(testUSDC, mustERC20(t), "balanceOf", func(args []interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(12_500_000)}, nil
	})
	chain.on(testEURC, mustERC20(t), "balanceOf", func([]interface{}) ([]interface{}, error) {
		return nil, errors.New("rpc timeout")
	})

	tokens := NewTokenService(chain, DefaultRegistry(), nil, nil)
	balances, err := NewBalanceService(chain, tokens, nil).All(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 3)

	require.Equal(t, "ETH", balances[0].Symbol)
	require.Equal(t, "1.5", balances[0].Formatted)

	require.Equal(t, "EURC", balances[1].Symbol)
	require.Equal(t, "0", balances[1].Raw)
	require.NotEmpty(t, balances[1].Warning)

	require.Equal(t, "USDC", balances[2].Symbol)
	require.Equal(t, "12.5", balances[2].Formatted)
}
