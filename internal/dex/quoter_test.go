package dex

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	agenterrors "liquidityAgent/internal/errors"
)

var testQuoter = common.HexToAddress("0x3EF68D3f7664b2805D4E88381b64868a56f88bC4")

func TestQuoteFallsBackToStable(t *testing.T) {
	parsed, err := QuoterABI()
	require.NoError(t, err)

	chain := newFakeChain(t)
	chain.on(testQuoter, parsed, "getAmountOut", func(args []interface{}) ([]interface{}, error) {
		if !args[2].(bool) {
			return nil, errors.New("execution reverted")
		}
		require.Equal(t, testEURC, args[0].(common.Address))
		require.Equal(t, testUSDC, args[1].(common.Address))
		return []interface{}{big.NewInt(5_400_000)}, nil
	})

	quote, err := NewQuoter(chain, testQuoter, nil).Quote(context.Background(), testEURC, testUSDC, big.NewInt(5_000_000))
	require.NoError(t, err)
	require.True(t, quote.Stable)
	require.Equal(t, int64(5_400_000), quote.AmountOut.Int64())
}

func TestQuotePrefersVolatile(t *testing.T) {
	parsed, err := QuoterABI()
	require.NoError(t, err)

	chain := newFakeChain(t)
	chain.on(testQuoter, parsed, "getAmountOut", func(args []interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(100)}, nil
	})

	quote, err := NewQuoter(chain, testQuoter, nil).Quote(context.Background(), testEURC, testUSDC, big.NewInt(1))
	require.NoError(t, err)
	require.False(t, quote.Stable)
	require.Equal(t, 1, chain.count(testQuoter, parsed, "getAmountOut"))
}

func TestQuoteZeroOutputTriesNextPool(t *testing.T) {
	parsed, err := QuoterABI()
	require.NoError(t, err)

	chain := newFakeChain(t)
	chain.on(testQuoter, parsed, "getAmountOut", func(args []interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(0)}, nil
	})

	_, err = NewQuoter(chain, testQuoter, nil).Quote(context.Background(), testEURC, testUSDC, big.NewInt(1))
	require.True(t, errors.Is(err, agenterrors.ErrQuoteUnavailable))
	require.Equal(t, 2, chain.count(testQuoter, parsed, "getAmountOut"))
}

func TestQuoteRejectsNonPositiveAmount(t *testing.T) {
	_, err := NewQuoter(newFakeChain(t), testQuoter, nil).Quote(context.Background(), testEURC, testUSDC, big.NewInt(0))
	require.True(t, errors.Is(err, agenterrors.ErrInvalidAmount))
}
