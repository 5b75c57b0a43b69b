package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"liquidityAgent/internal/model"
)

func TestJsonlStorageAppendsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.jsonl")
	store := NewJsonlStorage(path)
	ctx := context.Background()

	swap := model.SwapRecord{
		ChainID: 8453,
		Wallet:  "0x00000000000000000000000000000000000000aa",
		Intent:  model.SwapIntent{TokenIn: "EURC", TokenOut: "USDC", AmountIn: "5"},
		Outcome: model.SwapOutcome{
			ID:        "b7c6",
			Status:    model.StatusError,
			Approval:  &model.ApprovalStep{Needed: true, Success: true, TxHash: "0xabc"},
			ErrorCode: "SWAP_EXECUTION",
		},
		Timestamp: 1_700_000_000,
	}
	rng := model.RangeRecord{
		ChainID: 8453,
		Recommendation: model.RangeRecommendation{
			Pair:         "0xpair",
			CurrentPrice: decimal.RequireFromString("1.0012"),
			TickSpacing:  50,
			TickRange:    model.TickRange{TickLower: -50, TickUpper: 50},
		},
		Timestamp: 1_700_000_001,
	}
	require.NoError(t, store.RecordSwap(ctx, swap))
	require.NoError(t, store.RecordRange(ctx, rng))

	entries, err := ReadEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, KindSwap, entries[0].Kind)
	require.Nil(t, entries[0].Range)
	require.Equal(t, "0xabc", entries[0].Swap.Outcome.Approval.TxHash)
	require.Equal(t, "SWAP_EXECUTION", entries[0].Swap.Outcome.ErrorCode)

	require.Equal(t, KindRange, entries[1].Kind)
	require.Equal(t, int32(-50), entries[1].Range.Recommendation.TickRange.TickLower)
	require.True(t, entries[1].Range.Recommendation.CurrentPrice.Equal(decimal.RequireFromString("1.0012")))
}

func TestJsonlStorageConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	store := NewJsonlStorage(path)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, store.RecordSwap(context.Background(), model.SwapRecord{Timestamp: int64(i)}))
		}(i)
	}
	wg.Wait()

	entries, err := ReadEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 20)
}

func TestReadEntriesMissingFile(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestReadEntriesRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"kind\":\"swap\"}\nnot json\n"), 0o644))
	_, err := ReadEntries(path)
	require.ErrorContains(t, err, "line 2")
}

func TestJsonlStorageRecentSwaps(t *testing.T) {
	store := NewJsonlStorage(filepath.Join(t.TempDir(), "journal.jsonl"))
	ctx := context.Background()
	wallet := "0x00000000000000000000000000000000000000aA"
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.RecordSwap(ctx, model.SwapRecord{
			ChainID:   8453,
			Wallet:    wallet,
			Outcome:   model.SwapOutcome{ID: id},
			Timestamp: int64(i),
		}))
	}
	require.NoError(t, store.RecordSwap(ctx, model.SwapRecord{ChainID: 1, Wallet: wallet, Outcome: model.SwapOutcome{ID: "other-chain"}}))
	require.NoError(t, store.RecordRange(ctx, model.RangeRecord{ChainID: 8453}))

	got, err := store.RecentSwaps(ctx, 8453, "0x00000000000000000000000000000000000000AA", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "c", got[0].ID)
	require.Equal(t, "b", got[1].ID)
}
