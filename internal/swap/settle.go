package swap

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	agenterrors "liquidityAgent/internal/errors"
)

// DefaultSettleDelay is the fixed wait after an approval.
const DefaultSettleDelay = 5 * time.Second

// DelaySettler waits a fixed time. It does not check that the approval was mined.
type DelaySettler struct {
	delay time.Duration
}

func NewDelaySettler(delay time.Duration) *DelaySettler {
	return &DelaySettler{delay: delay}
}

func (s *DelaySettler) Settle(ctx context.Context, _ common.Hash) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ReceiptReader returns mined receipts, or ethereum.NotFound while pending.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// ReceiptConfig bounds receipt polling.
type ReceiptConfig struct {
	Timeout    time.Duration
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// ReceiptSettler polls for the approval receipt with exponential backoff.
type ReceiptSettler struct {
	reader ReceiptReader
	cfg    ReceiptConfig
	logger *zap.Logger
}

func NewReceiptSettler(reader ReceiptReader, cfg ReceiptConfig, logger *zap.Logger) *ReceiptSettler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.MaxBackoff < cfg.Backoff {
		cfg.MaxBackoff = 8 * cfg.Backoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptSettler{reader: reader, cfg: cfg, logger: logger}
}

// Settle returns nil once the receipt reports success. A reverted receipt or
// no receipt within the timeout is APPROVAL_FAILED carrying the hash.
func (s *ReceiptSettler) Settle(ctx context.Context, tx common.Hash) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	wait := s.cfg.Backoff
	for {
		receipt, err := s.reader.TransactionReceipt(ctx, tx)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == types.ReceiptStatusFailed {
				msg := "approval reverted"
				if receipt.BlockNumber != nil {
					msg += " in block " + receipt.BlockNumber.String()
				}
				return agenterrors.New(agenterrors.CodeApprovalFailed, msg, agenterrors.WithTxHash(tx.Hex()))
			}
			s.logger.Debug("approval mined", zap.String("tx", tx.Hex()), zap.Uint64("gas_used", receipt.GasUsed))
			return nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			s.logger.Debug("receipt lookup failed", zap.String("tx", tx.Hex()), zap.Error(err))
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return agenterrors.Wrap(agenterrors.CodeApprovalFailed, ctx.Err(), "no receipt for approval",
				agenterrors.WithTxHash(tx.Hex()))
		case <-timer.C:
		}
		wait *= 2
		if wait > s.cfg.MaxBackoff {
			wait = s.cfg.MaxBackoff
		}
	}
}
