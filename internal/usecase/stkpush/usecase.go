package stkpush

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/config"
	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/metrics"
	stkpushdto "github.com/LavaJover/shvark-stkpush-service/internal/usecase/dto/stkpush"
	"github.com/jaevor/go-nanoid"
	"go.uber.org/zap"
)

type StkPushUsecase interface {
	Initiate(ctx context.Context, input *stkpushdto.InitiateInput) (*stkpushdto.InitiateOutput, error)
	AcceptCallback(raw []byte)
	Reconcile(ctx context.Context, n stkpushdto.Notification) (stkpushdto.ReconcileResult, error)
	Resolve(ctx context.Context, requestID string) (stkpushdto.Resolution, error)
	SweepStalePending(ctx context.Context, olderThan time.Duration) (int, error)
	Stats() domain.StoreStats
	Clear() int
}

type Deps struct {
	Store      domain.CorrelationStore
	Tokens     domain.TokenProvider
	Gateway    domain.PaymentGateway
	Dispatcher *Dispatcher
	Publisher  domain.EventPublisher
	Audit      domain.AuditLogger
	DLQ        domain.DeadLetterQueue
	Metrics    *metrics.PaymentMetrics
	Logger     *zap.Logger
}

type DefaultStkPushUsecase struct {
	Store      domain.CorrelationStore
	Tokens     domain.TokenProvider
	Gateway    domain.PaymentGateway
	Dispatcher *Dispatcher
	Publisher  domain.EventPublisher
	Audit      domain.AuditLogger
	DLQ        domain.DeadLetterQueue
	Metrics    *metrics.PaymentMetrics

	cfg   config.Gateway
	log   *zap.Logger
	newID func() string
	now   func() time.Time
}

func NewDefaultStkPushUsecase(cfg config.Gateway, deps Deps) (*DefaultStkPushUsecase, error) {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, fmt.Errorf("init id generator: %w", err)
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &DefaultStkPushUsecase{
		Store:      deps.Store,
		Tokens:     deps.Tokens,
		Gateway:    deps.Gateway,
		Dispatcher: deps.Dispatcher,
		Publisher:  deps.Publisher,
		Audit:      deps.Audit,
		DLQ:        deps.DLQ,
		Metrics:    deps.Metrics,
		cfg:        cfg,
		log:        log.Named("stkpush"),
		newID:      idGenerator,
		now:        time.Now,
	}, nil
}

func (uc *DefaultStkPushUsecase) Stats() domain.StoreStats {
	return uc.Store.Stats()
}

// Clear drops every record and reports how many were removed.
func (uc *DefaultStkPushUsecase) Clear() int {
	n := uc.Store.Clear()
	uc.log.Info("transactions cleared", zap.Int("count", n))
	uc.recordStoreStats()
	return n
}
