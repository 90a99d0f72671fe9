package stkpush

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	"go.uber.org/zap"
)

// SweepStalePending resolves pending records older than olderThan through the
// gateway query, covering callbacks that never arrive. It returns how many
// records reached a terminal status.
func (uc *DefaultStkPushUsecase) SweepStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	stale := uc.Store.ListPending(olderThan)
	resolved := 0
	for _, tx := range stale {
		if err := ctx.Err(); err != nil {
			return resolved, err
		}
		r, err := uc.Resolve(ctx, tx.RequestID)
		if err != nil {
			uc.log.Warn("stale pending not resolved", zap.String("request_id", tx.RequestID), zap.Error(err))
			continue
		}
		if r.Status == domain.StatusCompleted || r.Status == domain.StatusFailed {
			resolved++
		}
	}
	if len(stale) > 0 {
		uc.log.Info("stale pending sweep", zap.Int("checked", len(stale)), zap.Int("resolved", resolved))
	}
	uc.recordStoreStats()
	return resolved, nil
}
