package swap

import (
	"context"
	"time"

	"go.uber.org/zap"

	"liquidityAgent/internal/model"
	"liquidityAgent/internal/storage"
)

// Executor runs one swap.
type Executor interface {
	ExecuteSwap(ctx context.Context, intent model.SwapIntent) (*model.SwapOutcome, error)
}

// JournaledExecutor records every outcome, successful or not, after the swap returns.
type JournaledExecutor struct {
	next    Executor
	journal storage.Storage
	chainID uint64
	wallet  string
	logger  *zap.Logger
}

func NewJournaledExecutor(next Executor, journal storage.Storage, chainID uint64, wallet string, logger *zap.Logger) *JournaledExecutor {
	if journal == nil {
		journal = storage.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournaledExecutor{next: next, journal: journal, chainID: chainID, wallet: wallet, logger: logger}
}

func (j *JournaledExecutor) ExecuteSwap(ctx context.Context, intent model.SwapIntent) (*model.SwapOutcome, error) {
	outcome, err := j.next.ExecuteSwap(ctx, intent)
	if outcome == nil {
		return outcome, err
	}

	// The swap context may already be cancelled; journaling gets its own budget.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	record := model.SwapRecord{
		ChainID:   j.chainID,
		Wallet:    j.wallet,
		Intent:    intent,
		Outcome:   *outcome,
		Timestamp: time.Now().Unix(),
	}
	if jerr := j.journal.RecordSwap(recordCtx, record); jerr != nil {
		j.logger.Warn("journal swap failed", zap.String("swap_id", outcome.ID), zap.Error(jerr))
	}
	return outcome, err
}
