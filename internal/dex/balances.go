package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityAgent/internal/model"
)

const nativeDecimals = 18

// AccountReader reads balances of one account.
type AccountReader interface {
	ContractReader
	Address() common.Address
	NativeBalance(ctx context.Context) (*big.Int, error)
}

// BalanceService reports native and token balances of the agent wallet.
type BalanceService struct {
	account AccountReader
	tokens  *TokenService
	logger  *zap.Logger
}

func NewBalanceService(account AccountReader, tokens *TokenService, logger *zap.Logger) *BalanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceService{account: account, tokens: tokens, logger: logger}
}

// Native returns the ETH balance.
func (s *BalanceService) Native(ctx context.Context) (model.Balance, error) {
	wei, err := s.account.NativeBalance(ctx)
	if err != nil {
		return model.Balance{}, fmt.Errorf("native balance: %w", err)
	}
	return model.Balance{
		Token:     "native",
		Symbol:    "ETH",
		Raw:       wei.String(),
		Formatted: FormatTokenAmount(wei, nativeDecimals),
	}, nil
}

// Token returns the balance of a symbol or address.
func (s *BalanceService) Token(ctx context.Context, token string) (model.Balance, error) {
	meta, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return model.Balance{}, err
	}
	address := common.HexToAddress(meta.Address)
	raw, err := balanceOf(ctx, s.account, address, s.account.Address())
	if err != nil {
		return model.Balance{}, err
	}
	return model.Balance{
		Token:     meta.Address,
		Symbol:    meta.Label(),
		Raw:       raw.String(),
		Formatted: FormatTokenAmount(raw, meta.Decimals),
	}, nil
}

// All returns native plus every registry token. Token failures become zero with a warning.
func (s *BalanceService) All(ctx context.Context) ([]model.Balance, error) {
	native, err := s.Native(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Balance{native}
	for _, meta := range s.tokens.Registry().Tokens() {
		balance, err := s.Token(ctx, meta.Address)
		if err != nil {
			s.logger.Warn("token balance failed", zap.String("token", meta.Symbol), zap.Error(err))
			balance = model.Balance{
				Token:     meta.Address,
				Symbol:    meta.Symbol,
				Raw:       "0",
				Formatted: "0",
				Warning:   err.Error(),
			}
		}
		out = append(out, balance)
	}
	return out, nil
}

func balanceOf(ctx context.Context, reader ContractReader, token common.Address, owner common.Address) (*big.Int, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, err
	}
	values, err := callMethod(ctx, reader, token, parsed, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	bal, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf unexpected type %T", values[0])
	}
	return bal, nil
}
