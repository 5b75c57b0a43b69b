package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	agenterrors "liquidityAgent/internal/errors"
	"liquidityAgent/internal/model"
)

// AllowanceService reads and changes ERC20 allowances of the agent wallet.
type AllowanceService struct {
	reader ContractReader
	sender TxSender
	logger *zap.Logger
}

func NewAllowanceService(reader ContractReader, sender TxSender, logger *zap.Logger) *AllowanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllowanceService{reader: reader, sender: sender, logger: logger}
}

// Allowance reads allowance(owner, spender) on token. It is never cached.
func (s *AllowanceService) Allowance(ctx context.Context, owner, token, spender common.Address) (*big.Int, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callMethod(ctx, s.reader, token, parsed, "allowance", owner, spender)
	if err != nil {
		return nil, agenterrors.Wrap(agenterrors.CodeAllowanceCheck, err, "read allowance of "+token.Hex())
	}
	allowance, err := asBigInt(values[0])
	if err != nil {
		return nil, agenterrors.Wrap(agenterrors.CodeAllowanceCheck, err, "decode allowance")
	}
	return allowance, nil
}

// Approve sets the spender allowance. A nil amount approves the maximum.
func (s *AllowanceService) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (model.ApprovalResult, error) {
	result := model.ApprovalResult{Token: token.Hex(), Spender: spender.Hex()}
	if amount == nil {
		amount = MaxUint256
		result.Unlimited = true
	}
	result.Amount = amount.String()

	data, err := EncodeApprove(spender, amount)
	if err != nil {
		return result, agenterrors.Wrap(agenterrors.CodeApprovalFailed, err, "encode approve")
	}
	hash, err := s.sender.SendTransaction(ctx, token, data, nil)
	if err != nil {
		result.Error = err.Error()
		return result, agenterrors.Wrap(agenterrors.CodeApprovalFailed, err, "approve "+token.Hex())
	}
	result.TxHash = hash.Hex()

	s.logger.Info("approval submitted",
		zap.String("token", token.Hex()),
		zap.String("spender", spender.Hex()),
		zap.String("amount", result.Amount),
		zap.String("tx", result.TxHash),
	)
	return result, nil
}

// Revoke sets the allowance to zero. No transaction is sent when it already is.
func (s *AllowanceService) Revoke(ctx context.Context, token, spender common.Address) (model.ApprovalResult, error) {
	current, err := s.Allowance(ctx, s.sender.Address(), token, spender)
	if err != nil {
		return model.ApprovalResult{Token: token.Hex(), Spender: spender.Hex()}, err
	}
	if current.Sign() == 0 {
		return model.ApprovalResult{
			Token:       token.Hex(),
			Spender:     spender.Hex(),
			Amount:      "0",
			AlreadyZero: true,
		}, nil
	}
	return s.Approve(ctx, token, spender, new(big.Int))
}

// ApproveMany approves each token in turn. It fails only when every approval failed.
func (s *AllowanceService) ApproveMany(ctx context.Context, tokens []common.Address, spender common.Address, amount *big.Int) ([]model.ApprovalResult, error) {
	results := make([]model.ApprovalResult, 0, len(tokens))
	var lastErr error
	failed := 0
	for _, token := range tokens {
		result, err := s.Approve(ctx, token, spender, amount)
		if err != nil {
			failed++
			lastErr = err
			result.Error = err.Error()
			s.logger.Warn("approval failed", zap.String("token", token.Hex()), zap.Error(err))
		}
		results = append(results, result)
	}
	if len(tokens) > 0 && failed == len(tokens) {
		return results, lastErr
	}
	return results, nil
}
