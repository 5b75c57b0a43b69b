package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityAgent/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS swap_records (
	id            TEXT PRIMARY KEY,
	chain_id      BIGINT NOT NULL,
	wallet        TEXT NOT NULL,
	token_in      TEXT NOT NULL,
	token_out     TEXT NOT NULL,
	amount_in     TEXT NOT NULL,
	status        TEXT NOT NULL,
	error_code    TEXT,
	approval_tx   TEXT,
	swap_tx       TEXT,
	outcome       JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS range_records (
	id            BIGSERIAL PRIMARY KEY,
	chain_id      BIGINT NOT NULL,
	pair          TEXT NOT NULL,
	current_price NUMERIC NOT NULL,
	volatility    NUMERIC NOT NULL,
	tick_spacing  INTEGER NOT NULL,
	tick_lower    INTEGER NOT NULL,
	tick_upper    INTEGER NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS swap_records_wallet_idx ON swap_records (chain_id, wallet, created_at DESC);
`

// Store journals swaps and range recommendations in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the journal tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create journal schema: %w", err)
	}
	return nil
}

func (s *Store) RecordSwap(ctx context.Context, record model.SwapRecord) error {
	return s.InsertSwaps(ctx, []model.SwapRecord{record})
}

func (s *Store) RecordRange(ctx context.Context, record model.RangeRecord) error {
	return s.InsertRanges(ctx, []model.RangeRecord{record})
}

// InsertSwaps writes swap records in one batch. Records already stored are skipped.
func (s *Store) InsertSwaps(ctx context.Context, records []model.SwapRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		outcome, err := json.Marshal(r.Outcome)
		if err != nil {
			return fmt.Errorf("marshal swap outcome: %w", err)
		}
		var approvalTx, swapTx string
		if r.Outcome.Approval != nil {
			approvalTx = r.Outcome.Approval.TxHash
		}
		if r.Outcome.Swap != nil {
			swapTx = r.Outcome.Swap.TxHash
		}
		batch.Queue(`
			INSERT INTO swap_records (
				id, chain_id, wallet, token_in, token_out, amount_in, status, error_code,
				approval_tx, swap_tx, outcome, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),NULLIF($9,''),NULLIF($10,''),$11,$12)
			ON CONFLICT (id) DO NOTHING
		`,
			r.Outcome.ID,
			int64(r.ChainID),
			r.Wallet,
			r.Intent.TokenIn,
			r.Intent.TokenOut,
			r.Intent.AmountIn,
			r.Outcome.Status,
			r.Outcome.ErrorCode,
			approvalTx,
			swapTx,
			outcome,
			time.Unix(r.Timestamp, 0).UTC(),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert swap record: %w", err)
		}
	}
	return nil
}

// InsertRanges writes range recommendations in one batch.
func (s *Store) InsertRanges(ctx context.Context, records []model.RangeRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		rec := r.Recommendation
		batch.Queue(`
			INSERT INTO range_records (
				chain_id, pair, current_price, volatility, tick_spacing, tick_lower, tick_upper, created_at
			) VALUES ($1,$2,$3::numeric,$4::numeric,$5,$6,$7,$8)
		`,
			int64(r.ChainID),
			rec.Pair,
			rec.CurrentPrice.String(),
			rec.Volatility.String(),
			rec.TickSpacing,
			rec.TickRange.TickLower,
			rec.TickRange.TickUpper,
			time.Unix(r.Timestamp, 0).UTC(),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert range record: %w", err)
		}
	}
	return nil
}

// RecentSwaps returns the latest outcomes of a wallet, newest first.
func (s *Store) RecentSwaps(ctx context.Context, chainID uint64, wallet string, limit int) ([]model.SwapOutcome, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT outcome FROM swap_records
		WHERE chain_id=$1 AND wallet=$2
		ORDER BY created_at DESC
		LIMIT $3
	`, int64(chainID), wallet, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SwapOutcome
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var outcome model.SwapOutcome
		if err := json.Unmarshal(raw, &outcome); err != nil {
			return nil, fmt.Errorf("decode swap outcome: %w", err)
		}
		out = append(out, outcome)
	}
	return out, rows.Err()
}
