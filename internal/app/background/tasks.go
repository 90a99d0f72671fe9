package background

import (
	"context"
	"errors"
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// Sweeper resolves pending transactions whose callback is overdue.
type Sweeper interface {
	SweepStalePending(ctx context.Context, olderThan time.Duration) (int, error)
}

type BackgroundTasks struct {
	Sweeper       Sweeper
	SweepInterval time.Duration
	StaleAfter    time.Duration

	metrics *metrics.PaymentMetrics
	log     *zap.Logger
}

func NewBackgroundTasks(sweeper Sweeper, interval, staleAfter time.Duration, m *metrics.PaymentMetrics, log *zap.Logger) *BackgroundTasks {
	return &BackgroundTasks{
		Sweeper:       sweeper,
		SweepInterval: interval,
		StaleAfter:    staleAfter,
		metrics:       m,
		log:           log.Named("background"),
	}
}

// StartAll launches the periodic jobs. A zero interval disables the sweep.
// The returned channel is closed once every job has stopped.
func (bt *BackgroundTasks) StartAll(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if bt.SweepInterval <= 0 {
		bt.log.Info("stale pending sweep disabled")
		close(done)
		return done
	}
	go func() {
		defer close(done)
		bt.startStalePendingSweep(ctx)
	}()
	return done
}

func (bt *BackgroundTasks) startStalePendingSweep(ctx context.Context) {
	ticker := time.NewTicker(bt.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.sweepOnce(ctx)
		}
	}
}

func (bt *BackgroundTasks) sweepOnce(ctx context.Context) {
	resolved, err := bt.Sweeper.SweepStalePending(ctx, bt.StaleAfter)
	switch {
	case err == nil:
		bt.record("ok")
		if resolved > 0 {
			bt.log.Info("stale pending resolved", zap.Int("resolved", resolved))
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		bt.record("interrupted")
	default:
		bt.record("error")
		bt.log.Error("stale pending sweep failed", zap.Error(err))
	}
}

func (bt *BackgroundTasks) record(outcome string) {
	if bt.metrics != nil {
		bt.metrics.RecordSweep(outcome)
	}
}
