package swap

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"liquidityAgent/internal/dex"
	agenterrors "liquidityAgent/internal/errors"
	"liquidityAgent/internal/model"
)

var (
	testRouter  = common.HexToAddress("0xcF77a3Ba9A5CA399B7c97c74d54e5b1Beb874E43")
	testFactory = common.HexToAddress("0x420DD381b31aEf6683db6B902084cB0FFECe40Da")
	testEURC    = common.HexToAddress("0x60a3E35Cc302bFA44Cb288Bc5a4F316Fdb1adb42")
	testUSDC    = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	testOwner   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

type sentTx struct {
	to   common.Address
	data []byte
	hash common.Hash
}

type fakeWallet struct {
	mu   sync.Mutex
	sent []sentTx
	// failApprove rejects approve submissions.
	failApprove error
	// failSwap rejects swaps routed through the given pool type.
	failSwap map[bool]error
	t        *testing.T
}

func (w *fakeWallet) Address() common.Address { return testOwner }

func (w *fakeWallet) SendTransaction(_ context.Context, to common.Address, data []byte, _ *big.Int) (common.Hash, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if to == testRouter {
		route := decodeSwap(w.t, data).routes[0]
		if err := w.failSwap[route.Stable]; err != nil {
			return common.Hash{}, err
		}
	} else if w.failApprove != nil {
		return common.Hash{}, w.failApprove
	}
	hash := common.BigToHash(big.NewInt(int64(len(w.sent) + 1)))
	w.sent = append(w.sent, sentTx{to: to, data: data, hash: hash})
	return hash, nil
}

func (w *fakeWallet) byTarget(to common.Address) []sentTx {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []sentTx
	for _, tx := range w.sent {
		if tx.to == to {
			out = append(out, tx)
		}
	}
	return out
}

type fakeResolver map[string]model.TokenMeta

func (r fakeResolver) Resolve(_ context.Context, token string) (model.TokenMeta, error) {
	if meta, ok := r[strings.ToUpper(token)]; ok {
		return meta, nil
	}
	return model.TokenMeta{}, agenterrors.Newf(agenterrors.CodeTokenResolution, "unknown token %q", token)
}

func defaultResolver() fakeResolver {
	return fakeResolver{
		"EURC": {Address: testEURC.Hex(), Symbol: "EURC", Decimals: 6},
		"USDC": {Address: testUSDC.Hex(), Symbol: "USDC", Decimals: 6},
		"WETH": {Address: "0x4200000000000000000000000000000000000006", Symbol: "WETH", Decimals: 18},
	}
}

type fakeAllowance struct {
	value *big.Int
	err   error
	calls int
}

func (a *fakeAllowance) Allowance(_ context.Context, owner, _, spender common.Address) (*big.Int, error) {
	a.calls++
	if owner != testOwner || spender != testRouter {
		return nil, errors.New("unexpected owner or spender")
	}
	if a.err != nil {
		return nil, a.err
	}
	return a.value, nil
}

type fakeQuoter struct {
	quote dex.Quote
	err   error
}

func (q *fakeQuoter) Quote(context.Context, common.Address, common.Address, *big.Int) (dex.Quote, error) {
	return q.quote, q.err
}

type fakeSettler struct {
	settled []common.Hash
	err     error
}

func (s *fakeSettler) Settle(_ context.Context, tx common.Hash) error {
	s.settled = append(s.settled, tx)
	return s.err
}

type decodedSwap struct {
	amountIn     *big.Int
	amountOutMin *big.Int
	routes       []dex.Route
	to           common.Address
	deadline     *big.Int
}

func decodeSwap(t *testing.T, data []byte) decodedSwap {
	t.Helper()
	parsed, err := dex.RouterABI()
	require.NoError(t, err)
	method := parsed.Methods["swapExactTokensForTokens"]
	require.Equal(t, method.ID, data[:4])
	values, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	return decodedSwap{
		amountIn:     values[0].(*big.Int),
		amountOutMin: values[1].(*big.Int),
		routes:       *abi.ConvertType(values[2], new([]dex.Route)).(*[]dex.Route),
		to:           values[3].(common.Address),
		deadline:     values[4].(*big.Int),
	}
}

func decodeApprove(t *testing.T, data []byte) (common.Address, *big.Int) {
	t.Helper()
	parsed, err := dex.ERC20ABI()
	require.NoError(t, err)
	values, err := parsed.Methods["approve"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	return values[0].(common.Address), values[1].(*big.Int)
}

type harness struct {
	wallet    *fakeWallet
	allowance *fakeAllowance
	quoter    *fakeQuoter
	settler   *fakeSettler
	orch      *Orchestrator
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		wallet:    &fakeWallet{t: t},
		allowance: &fakeAllowance{value: new(big.Int)},
		quoter:    &fakeQuoter{quote: dex.Quote{AmountOut: big.NewInt(5_800_000), Stable: true}},
		settler:   &fakeSettler{},
	}
	h.orch = NewOrchestrator(h.wallet, defaultResolver(), h.allowance, h.quoter, h.settler, Config{
		Router:  testRouter,
		Factory: testFactory,
	}, nil)
	h.orch.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return h
}
