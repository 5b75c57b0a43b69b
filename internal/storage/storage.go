package storage

import (
	"context"

	"liquidityAgent/internal/model"
)

// Storage is the journal of agent actions.
type Storage interface {
	RecordSwap(ctx context.Context, record model.SwapRecord) error
	RecordRange(ctx context.Context, record model.RangeRecord) error
}

// History lists journaled swaps.
type History interface {
	RecentSwaps(ctx context.Context, chainID uint64, wallet string, limit int) ([]model.SwapOutcome, error)
}

// Nop discards every record.
type Nop struct{}

func (Nop) RecordSwap(context.Context, model.SwapRecord) error   { return nil }
func (Nop) RecordRange(context.Context, model.RangeRecord) error { return nil }
