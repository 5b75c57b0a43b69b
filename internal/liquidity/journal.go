package liquidity

import (
	"context"
	"time"

	"go.uber.org/zap"

	"liquidityAgent/internal/model"
	"liquidityAgent/internal/storage"
)

// JournaledRecommender records every successful recommendation.
type JournaledRecommender struct {
	next    RangeSource
	journal storage.Storage
	chainID uint64
	logger  *zap.Logger
}

func NewJournaledRecommender(next RangeSource, journal storage.Storage, chainID uint64, logger *zap.Logger) *JournaledRecommender {
	if journal == nil {
		journal = storage.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournaledRecommender{next: next, journal: journal, chainID: chainID, logger: logger}
}

func (j *JournaledRecommender) Recommend(ctx context.Context, pair string) (model.RangeRecommendation, error) {
	rec, err := j.next.Recommend(ctx, pair)
	if err != nil {
		return rec, err
	}
	record := model.RangeRecord{ChainID: j.chainID, Recommendation: rec, Timestamp: time.Now().Unix()}
	if jerr := j.journal.RecordRange(ctx, record); jerr != nil {
		j.logger.Warn("journal range failed", zap.String("pair", rec.Pair), zap.Error(jerr))
	}
	return rec, nil
}
