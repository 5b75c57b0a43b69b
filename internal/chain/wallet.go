package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Backend is the subset of RPC the wallet needs. *Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// WalletConfig controls signing and read retries.
type WalletConfig struct {
	PrivateKey string
	ChainID    *big.Int
	// GasMultiplierPct pads estimated gas, 120 means +20%.
	GasMultiplierPct uint64
	MaxRetries       int
	RetryBackoff     time.Duration
}

// Wallet signs and submits EIP-1559 transactions from a single account.
// Submissions are serialized so nonces are assigned in order.
type Wallet struct {
	backend Backend
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	signer  types.Signer

	gasMultiplierPct uint64
	maxRetries       int
	retryBackoff     time.Duration

	sendMu sync.Mutex
	logger *zap.Logger
}

// NewWallet parses the private key and binds it to backend.
func NewWallet(backend Backend, cfg WalletConfig, logger *zap.Logger) (*Wallet, error) {
	if backend == nil {
		return nil, fmt.Errorf("chain backend is nil")
	}
	if cfg.ChainID == nil || cfg.ChainID.Sign() <= 0 {
		return nil, fmt.Errorf("chain id is required")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	gasPct := cfg.GasMultiplierPct
	if gasPct < 100 {
		gasPct = 120
	}

	return &Wallet{
		backend:          backend,
		key:              key,
		address:          crypto.PubkeyToAddress(key.PublicKey),
		chainID:          new(big.Int).Set(cfg.ChainID),
		signer:           types.LatestSignerForChainID(cfg.ChainID),
		gasMultiplierPct: gasPct,
		maxRetries:       cfg.MaxRetries,
		retryBackoff:     cfg.RetryBackoff,
		logger:           logger,
	}, nil
}

// Address returns the sending account.
func (w *Wallet) Address() common.Address {
	return w.address
}

// ChainID returns the chain the wallet signs for.
func (w *Wallet) ChainID() *big.Int {
	return new(big.Int).Set(w.chainID)
}

// ReadContract performs an eth_call against the latest block.
func (w *Wallet) ReadContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var out []byte
	err := Retry(ctx, w.maxRetries, w.retryBackoff, func(ctx context.Context) error {
		resp, err := w.backend.CallContract(ctx, ethereum.CallMsg{From: w.address, To: &to, Data: data}, nil)
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	return out, err
}

// NativeBalance returns the wallet balance in wei.
func (w *Wallet) NativeBalance(ctx context.Context) (*big.Int, error) {
	var balance *big.Int
	err := Retry(ctx, w.maxRetries, w.retryBackoff, func(ctx context.Context) error {
		b, err := w.backend.BalanceAt(ctx, w.address, nil)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	return balance, err
}

// TransactionReceipt proxies the backend so settlement can poll through the wallet.
func (w *Wallet) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return w.backend.TransactionReceipt(ctx, hash)
}

// SendTransaction estimates, signs and broadcasts a call to `to`.
// Estimation runs the call, so a reverting call fails here without spending gas.
func (w *Wallet) SendTransaction(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	if value == nil {
		value = new(big.Int)
	}

	w.sendMu.Lock()
	defer w.sendMu.Unlock()

	nonce, err := w.backend.PendingNonceAt(ctx, w.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}
	tipCap, err := w.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas tip: %w", err)
	}
	head, err := w.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("latest header: %w", err)
	}
	feeCap := new(big.Int).Set(tipCap)
	if head != nil && head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	gas, err := w.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  w.address,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
	}
	gas = gas * w.gasMultiplierPct / 100

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   w.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      data,
	})
	signed, err := types.SignTx(tx, w.signer, w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	if err := w.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}

	w.logger.Info("tx submitted",
		zap.String("hash", signed.Hash().Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas),
	)
	return signed.Hash(), nil
}
