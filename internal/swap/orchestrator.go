package swap

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"liquidityAgent/internal/dex"
	agenterrors "liquidityAgent/internal/errors"
	"liquidityAgent/internal/model"
)

// Wallet submits transactions from the swapping account.
type Wallet interface {
	Address() common.Address
	SendTransaction(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error)
}

// TokenResolver turns a symbol or address into metadata with trusted decimals.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (model.TokenMeta, error)
}

// AllowanceReader reads ERC20 allowances.
type AllowanceReader interface {
	Allowance(ctx context.Context, owner, token, spender common.Address) (*big.Int, error)
}

// Quoter prices a swap.
type Quoter interface {
	Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (dex.Quote, error)
}

// Settler blocks until an approval can be relied on by the swap.
type Settler interface {
	Settle(ctx context.Context, tx common.Hash) error
}

// Config holds the router the orchestrator swaps through.
type Config struct {
	Router  common.Address
	Factory common.Address
	// DefaultStable is the first pool type tried when no quote picked one.
	DefaultStable bool
	Deadline      time.Duration
	SlippageBps   int64
}

const (
	defaultDeadline    = 30 * time.Minute
	defaultSlippageBps = 100
	bpsDenominator     = 10_000
)

// Orchestrator runs the approve-then-swap workflow. It keeps no state between calls.
type Orchestrator struct {
	wallet    Wallet
	tokens    TokenResolver
	allowance AllowanceReader
	quoter    Quoter
	settler   Settler
	cfg       Config
	now       func() time.Time
	logger    *zap.Logger
}

func NewOrchestrator(wallet Wallet, tokens TokenResolver, allowance AllowanceReader, quoter Quoter, settler Settler, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.Deadline <= 0 {
		cfg.Deadline = defaultDeadline
	}
	if cfg.SlippageBps <= 0 || cfg.SlippageBps >= bpsDenominator {
		cfg.SlippageBps = defaultSlippageBps
	}
	if settler == nil {
		settler = NewDelaySettler(DefaultSettleDelay)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		wallet:    wallet,
		tokens:    tokens,
		allowance: allowance,
		quoter:    quoter,
		settler:   settler,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}
}

// ExecuteSwap resolves both tokens, approves the router when the allowance is short,
// derives a minimum output and submits the swap. The outcome is never nil and records
// every step that happened before a failure; the error is non-nil iff the swap failed.
func (o *Orchestrator) ExecuteSwap(ctx context.Context, intent model.SwapIntent) (*model.SwapOutcome, error) {
	outcome := &model.SwapOutcome{ID: uuid.NewString()}
	logger := o.logger.With(
		zap.String("swap_id", outcome.ID),
		zap.String("token_in", intent.TokenIn),
		zap.String("token_out", intent.TokenOut),
		zap.String("amount_in", intent.AmountIn),
	)

	tokenIn, tokenOut, err := o.resolvePair(ctx, intent)
	if err != nil {
		return o.fail(logger, outcome, err)
	}

	amountIn, err := dex.ParseTokenAmount(intent.AmountIn, tokenIn.Decimals)
	if err != nil {
		return o.fail(logger, outcome, err)
	}
	var explicitMin *big.Int
	if strings.TrimSpace(intent.MinAmountOut) != "" {
		explicitMin, err = dex.ParseTokenAmount(intent.MinAmountOut, tokenOut.Decimals)
		if err != nil {
			return o.fail(logger, outcome, agenterrors.Wrap(agenterrors.CodeInvalidAmount, err, "invalid minimum output"))
		}
	}
	inAddr := common.HexToAddress(tokenIn.Address)
	outAddr := common.HexToAddress(tokenOut.Address)
	owner := o.wallet.Address()

	current, err := o.allowance.Allowance(ctx, owner, inAddr, o.cfg.Router)
	if err != nil {
		return o.fail(logger, outcome, stageError(agenterrors.CodeAllowanceCheck, err, "read router allowance", nil))
	}

	outcome.Approval = &model.ApprovalStep{}
	if current.Cmp(amountIn) < 0 {
		if err := o.approve(ctx, logger, outcome.Approval, inAddr, amountIn, intent.MaxApprove); err != nil {
			return o.fail(logger, outcome, err)
		}
	} else {
		outcome.Approval.Success = true
		outcome.Approval.Message = "allowance sufficient"
		logger.Debug("allowance sufficient", zap.String("allowance", current.String()))
	}

	step := &model.SwapStep{
		TokenIn:  tokenIn.Address,
		TokenOut: tokenOut.Address,
		AmountIn: amountIn.String(),
		Stable:   o.cfg.DefaultStable,
	}
	minOut := o.minAmountOut(ctx, logger, outcome, step, explicitMin, inAddr, outAddr, amountIn)
	step.MinAmountOut = minOut.String()
	outcome.Swap = step

	if err := o.submit(ctx, logger, step, inAddr, outAddr, amountIn, minOut, owner); err != nil {
		return o.fail(logger, outcome, stageError(agenterrors.CodeSwapExecution, err, "swap failed on both pool types", outcome.Approval))
	}

	outcome.Status = model.StatusSuccess
	outcome.Message = fmt.Sprintf("swapped %s %s for %s", intent.AmountIn, tokenIn.Label(), tokenOut.Label())
	logger.Info("swap submitted",
		zap.String("tx", step.TxHash),
		zap.String("min_out", step.MinAmountOut),
		zap.Bool("stable", step.Stable),
		zap.Bool("fallback", step.UsedFallback),
	)
	return outcome, nil
}

func (o *Orchestrator) resolvePair(ctx context.Context, intent model.SwapIntent) (model.TokenMeta, model.TokenMeta, error) {
	if strings.TrimSpace(intent.TokenIn) == "" || strings.TrimSpace(intent.TokenOut) == "" {
		return model.TokenMeta{}, model.TokenMeta{}, agenterrors.New(agenterrors.CodeInvalidInput, "tokenIn and tokenOut are required")
	}
	tokenIn, err := o.tokens.Resolve(ctx, intent.TokenIn)
	if err != nil {
		return model.TokenMeta{}, model.TokenMeta{}, stageError(agenterrors.CodeTokenResolution, err, "resolve "+intent.TokenIn, nil)
	}
	tokenOut, err := o.tokens.Resolve(ctx, intent.TokenOut)
	if err != nil {
		return model.TokenMeta{}, model.TokenMeta{}, stageError(agenterrors.CodeTokenResolution, err, "resolve "+intent.TokenOut, nil)
	}
	if strings.EqualFold(tokenIn.Address, tokenOut.Address) {
		return model.TokenMeta{}, model.TokenMeta{}, agenterrors.New(agenterrors.CodeInvalidInput, "tokenIn and tokenOut are the same token")
	}
	return tokenIn, tokenOut, nil
}

func (o *Orchestrator) approve(ctx context.Context, logger *zap.Logger, step *model.ApprovalStep, token common.Address, amountIn *big.Int, unlimited bool) error {
	step.Needed = true
	amount := amountIn
	if unlimited {
		amount = dex.MaxUint256
		step.Unlimited = true
	}
	step.Amount = amount.String()

	data, err := dex.EncodeApprove(o.cfg.Router, amount)
	if err != nil {
		step.Message = err.Error()
		return agenterrors.Wrap(agenterrors.CodeApprovalFailed, err, "encode approve")
	}
	hash, err := o.wallet.SendTransaction(ctx, token, data, nil)
	if err != nil {
		step.Message = err.Error()
		return agenterrors.Wrap(agenterrors.CodeApprovalFailed, err, "submit approval")
	}
	step.TxHash = hash.Hex()
	logger.Info("approval submitted", zap.String("tx", step.TxHash), zap.String("amount", step.Amount))

	if err := o.settler.Settle(ctx, hash); err != nil {
		step.Message = err.Error()
		return stageError(agenterrors.CodeApprovalFailed, err, "approval did not settle", step)
	}
	step.Success = true
	step.Message = "approval settled"
	return nil
}

func (o *Orchestrator) minAmountOut(ctx context.Context, logger *zap.Logger, outcome *model.SwapOutcome, step *model.SwapStep, explicit *big.Int, in, out common.Address, amountIn *big.Int) *big.Int {
	if explicit != nil {
		return explicit
	}

	quote, err := o.quoter.Quote(ctx, in, out, amountIn)
	if err != nil {
		logger.Warn("quote unavailable, using minimal protection", zap.Error(err))
		outcome.Warnings = append(outcome.Warnings, "quote unavailable, minimum output set to 1 base unit")
		return big.NewInt(1)
	}
	step.QuotedAmountOut = quote.AmountOut.String()
	step.Stable = quote.Stable

	minOut := new(big.Int).Mul(quote.AmountOut, big.NewInt(bpsDenominator-o.cfg.SlippageBps))
	minOut.Quo(minOut, big.NewInt(bpsDenominator))
	if minOut.Sign() == 0 {
		outcome.Warnings = append(outcome.Warnings, "slippage floor rounded to zero, minimum output set to 1 base unit")
		minOut.SetInt64(1)
	}
	return minOut
}

func (o *Orchestrator) submit(ctx context.Context, logger *zap.Logger, step *model.SwapStep, in, out common.Address, amountIn, minOut *big.Int, recipient common.Address) error {
	deadline := big.NewInt(o.now().Add(o.cfg.Deadline).Unix())
	first := step.Stable

	var lastErr error
	for attempt, stable := range []bool{first, !first} {
		if attempt > 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		data, err := dex.EncodeSwapExactTokensForTokens(amountIn, minOut, []dex.Route{{
			From:    in,
			To:      out,
			Stable:  stable,
			Factory: o.cfg.Factory,
		}}, recipient, deadline)
		if err != nil {
			return err
		}
		hash, err := o.wallet.SendTransaction(ctx, o.cfg.Router, data, nil)
		if err != nil {
			lastErr = err
			logger.Warn("swap attempt failed", zap.Bool("stable", stable), zap.Error(err))
			continue
		}
		step.TxHash = hash.Hex()
		step.Stable = stable
		step.UsedFallback = attempt > 0
		return nil
	}
	return lastErr
}

func (o *Orchestrator) fail(logger *zap.Logger, outcome *model.SwapOutcome, err error) (*model.SwapOutcome, error) {
	outcome.Status = model.StatusError
	outcome.ErrorCode = string(agenterrors.CodeOf(err))
	outcome.Error = err.Error()
	if outcome.Approval != nil && outcome.Approval.TxHash != "" {
		outcome.Message = fmt.Sprintf("approval %s was submitted but the swap did not complete", outcome.Approval.TxHash)
	} else {
		outcome.Message = agenterrors.AttributesOf(agenterrors.CodeOf(err)).Message
	}
	logger.Error("swap failed", zap.String("code", outcome.ErrorCode), zap.Error(err))
	return outcome, err
}

// stageError gives err the stage code and attaches the approval hash when one exists.
func stageError(code agenterrors.Code, err error, message string, approval *model.ApprovalStep) error {
	var opts []agenterrors.Option
	if approval != nil && approval.TxHash != "" {
		opts = append(opts, agenterrors.WithTxHash(approval.TxHash))
	}
	if coded, ok := agenterrors.From(err); ok && coded.Code() == code && len(opts) == 0 {
		return err
	}
	return agenterrors.Wrap(code, err, message, opts...)
}
