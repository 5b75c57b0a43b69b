package liquidity

import (
	"bytes"
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityAgent/internal/dex"
	agenterrors "liquidityAgent/internal/errors"
	"liquidityAgent/internal/model"
	"liquidityAgent/internal/tickmath"
)

// RangeSource produces the tick range a position is minted in.
type RangeSource interface {
	Recommend(ctx context.Context, pair string) (model.RangeRecommendation, error)
}

// TokenMetaReader returns metadata for an address.
type TokenMetaReader interface {
	Meta(ctx context.Context, address common.Address) (model.TokenMeta, error)
}

// Approver reads and sets allowances.
type Approver interface {
	Allowance(ctx context.Context, owner, token, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (model.ApprovalResult, error)
}

// Settler waits until a submitted transaction can be relied on.
type Settler interface {
	Settle(ctx context.Context, tx common.Hash) error
}

// ProviderConfig describes the pool positions are minted into.
type ProviderConfig struct {
	PositionManager common.Address
	Token0          common.Address
	Token1          common.Address
	Deadline        time.Duration
	SlippageBps     int64
}

// Provider mints concentrated-liquidity positions around the recommended range.
type Provider struct {
	ranges   RangeSource
	tokens   TokenMetaReader
	approver Approver
	wallet   dex.TxSender
	settler  Settler
	cfg      ProviderConfig
	now      func() time.Time
	logger   *zap.Logger
}

func NewProvider(ranges RangeSource, tokens TokenMetaReader, approver Approver, wallet dex.TxSender, settler Settler, cfg ProviderConfig, logger *zap.Logger) *Provider {
	if cfg.Deadline <= 0 {
		cfg.Deadline = 10 * time.Minute
	}
	if cfg.SlippageBps < 0 || cfg.SlippageBps >= 10_000 {
		cfg.SlippageBps = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		ranges:   ranges,
		tokens:   tokens,
		approver: approver,
		wallet:   wallet,
		settler:  settler,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
}

// AddLiquidity approves both tokens when needed and mints a position in the recommended range.
func (p *Provider) AddLiquidity(ctx context.Context, amount0Human, amount1Human string) (model.LiquidityResult, error) {
	if bytes.Compare(p.cfg.Token0.Bytes(), p.cfg.Token1.Bytes()) >= 0 {
		return model.LiquidityResult{}, agenterrors.New(agenterrors.CodeInvalidInput, "token0 must sort below token1")
	}

	meta0, err := p.tokens.Meta(ctx, p.cfg.Token0)
	if err != nil {
		return model.LiquidityResult{}, err
	}
	meta1, err := p.tokens.Meta(ctx, p.cfg.Token1)
	if err != nil {
		return model.LiquidityResult{}, err
	}
	amount0, err := dex.ParseTokenAmount(amount0Human, meta0.Decimals)
	if err != nil {
		return model.LiquidityResult{}, err
	}
	amount1, err := dex.ParseTokenAmount(amount1Human, meta1.Decimals)
	if err != nil {
		return model.LiquidityResult{}, err
	}

	rec, err := p.ranges.Recommend(ctx, "")
	if err != nil {
		return model.LiquidityResult{}, err
	}
	min0, min1, err := p.minAmounts(rec, meta0.Decimals, meta1.Decimals, amount0, amount1)
	if err != nil {
		return model.LiquidityResult{}, err
	}
	result := model.LiquidityResult{
		Range:   rec,
		Amount0: amount0.String(),
		Amount1: amount1.String(),
	}

	for _, leg := range []struct {
		token  common.Address
		amount *big.Int
	}{{p.cfg.Token0, amount0}, {p.cfg.Token1, amount1}} {
		hash, err := p.ensureAllowance(ctx, leg.token, leg.amount)
		if hash != "" {
			result.ApprovalHashes = append(result.ApprovalHashes, hash)
		}
		if err != nil {
			return result, err
		}
	}

	data, err := dex.EncodeMint(dex.MintParams{
		Token0:         p.cfg.Token0,
		Token1:         p.cfg.Token1,
		TickSpacing:    big.NewInt(int64(rec.TickSpacing)),
		TickLower:      big.NewInt(int64(rec.TickRange.TickLower)),
		TickUpper:      big.NewInt(int64(rec.TickRange.TickUpper)),
		Amount0Desired: amount0,
		Amount1Desired: amount1,
		Amount0Min:     min0,
		Amount1Min:     min1,
		Recipient:      p.wallet.Address(),
		Deadline:       big.NewInt(p.now().Add(p.cfg.Deadline).Unix()),
	})
	if err != nil {
		return result, agenterrors.Wrap(agenterrors.CodeInvalidInput, err, "encode mint")
	}
	hash, err := p.wallet.SendTransaction(ctx, p.cfg.PositionManager, data, nil)
	if err != nil {
		return result, agenterrors.Wrap(agenterrors.CodeChain, err, "mint position")
	}
	result.TxHash = hash.Hex()

	p.logger.Info("liquidity added",
		zap.String("tx", result.TxHash),
		zap.Int32("tick_lower", rec.TickRange.TickLower),
		zap.Int32("tick_upper", rec.TickRange.TickUpper),
		zap.String("amount0", result.Amount0),
		zap.String("amount1", result.Amount1),
	)
	return result, nil
}

func (p *Provider) ensureAllowance(ctx context.Context, token common.Address, amount *big.Int) (string, error) {
	current, err := p.approver.Allowance(ctx, p.wallet.Address(), token, p.cfg.PositionManager)
	if err != nil {
		return "", err
	}
	if current.Cmp(amount) >= 0 {
		return "", nil
	}
	approval, err := p.approver.Approve(ctx, token, p.cfg.PositionManager, amount)
	if err != nil {
		return "", err
	}
	if p.settler != nil {
		if err := p.settler.Settle(ctx, common.HexToHash(approval.TxHash)); err != nil {
			return approval.TxHash, agenterrors.Wrap(agenterrors.CodeApprovalFailed, err, "settle approval", agenterrors.WithTxHash(approval.TxHash))
		}
	}
	return approval.TxHash, nil
}

// minAmounts applies slippage to the amounts the minted liquidity actually takes at the
// current price, not to the desired amounts.
func (p *Provider) minAmounts(rec model.RangeRecommendation, decimals0, decimals1 uint8, amount0, amount1 *big.Int) (*big.Int, *big.Int, error) {
	sqrtPrice, err := tickmath.PriceToSqrtRatioX96(rec.CurrentPrice, decimals0, decimals1)
	if err != nil {
		return nil, nil, agenterrors.Wrap(agenterrors.CodeInvalidInput, err, "current price")
	}
	sqrtA, err := tickmath.GetSqrtRatioAtTick(rec.TickRange.TickLower)
	if err != nil {
		return nil, nil, agenterrors.Wrap(agenterrors.CodeInvalidInput, err, "lower tick")
	}
	sqrtB, err := tickmath.GetSqrtRatioAtTick(rec.TickRange.TickUpper)
	if err != nil {
		return nil, nil, agenterrors.Wrap(agenterrors.CodeInvalidInput, err, "upper tick")
	}
	liquidity, err := tickmath.LiquidityForAmounts(sqrtPrice, sqrtA.ToBig(), sqrtB.ToBig(), amount0, amount1)
	if err != nil {
		return nil, nil, agenterrors.Wrap(agenterrors.CodeDegenerateRange, err, "position liquidity")
	}
	if liquidity.Sign() == 0 {
		return nil, nil, agenterrors.New(agenterrors.CodeInvalidAmount, "amounts are too small to mint any liquidity in range")
	}
	used0, used1 := tickmath.AmountsForLiquidity(sqrtPrice, sqrtA.ToBig(), sqrtB.ToBig(), liquidity)
	return p.applySlippage(used0), p.applySlippage(used1), nil
}

func (p *Provider) applySlippage(amount *big.Int) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(10_000-p.cfg.SlippageBps))
	return out.Quo(out, big.NewInt(10_000))
}
