package dex

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type callHandler func(args []interface{}) ([]interface{}, error)

type registeredCall struct {
	method  abi.Method
	handler callHandler
}

// fakeChain answers ReadContract with handlers registered per contract and method.
type fakeChain struct {
	t *testing.T

	mu       sync.Mutex
	handlers map[string]registeredCall
	calls    map[string]int
	owner    common.Address
	native   *big.Int
}

func newFakeChain(t *testing.T) *fakeChain {
	return &fakeChain{
		t:        t,
		handlers: make(map[string]registeredCall),
		calls:    make(map[string]int),
		owner:    common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		native:   big.NewInt(0),
	}
}

func callKey(to common.Address, selector []byte) string {
	return to.Hex() + ":" + hex.EncodeToString(selector)
}

func (f *fakeChain) on(to common.Address, parsed abi.ABI, method string, handler callHandler) {
	f.t.Helper()
	m, ok := parsed.Methods[method]
	if !ok {
		f.t.Fatalf("unknown method %s", method)
	}
	f.mu.Lock()
	f.handlers[callKey(to, m.ID)] = registeredCall{method: m, handler: handler}
	f.mu.Unlock()
}

func (f *fakeChain) count(to common.Address, parsed abi.ABI, method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[callKey(to, parsed.Methods[method].ID)]
}

func (f *fakeChain) ReadContract(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("short calldata")
	}
	key := callKey(to, data[:4])
	f.mu.Lock()
	call, ok := f.handlers[key]
	f.calls[key]++
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("execution reverted")
	}
	args, err := call.method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	outputs, err := call.handler(args)
	if err != nil {
		return nil, err
	}
	return call.method.Outputs.Pack(outputs...)
}

func (f *fakeChain) Address() common.Address {
	return f.owner
}

func (f *fakeChain) NativeBalance(context.Context) (*big.Int, error) {
	return f.native, nil
}

type sentTx struct {
	to   common.Address
	data []byte
}

type fakeSender struct {
	mu      sync.Mutex
	address common.Address
	sent    []sentTx
	failFor map[common.Address]error
}

func (s *fakeSender) Address() common.Address {
	return s.address
}

func (s *fakeSender) SendTransaction(_ context.Context, to common.Address, data []byte, _ *big.Int) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failFor[to]; err != nil {
		return common.Hash{}, err
	}
	s.sent = append(s.sent, sentTx{to: to, data: data})
	return common.BigToHash(big.NewInt(int64(len(s.sent)))), nil
}

func mustERC20(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := ERC20ABI()
	if err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}
	return parsed
}

func decodeApprove(t *testing.T, data []byte) (common.Address, *big.Int) {
	t.Helper()
	parsed := mustERC20(t)
	values, err := parsed.Methods["approve"].Inputs.Unpack(data[4:])
	if err != nil {
		t.Fatalf("unpack approve: %v", err)
	}
	return values[0].(common.Address), values[1].(*big.Int)
}
