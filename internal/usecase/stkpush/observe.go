package stkpush

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	stkpushdto "github.com/LavaJover/shvark-stkpush-service/internal/usecase/dto/stkpush"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Side effects below never fail the operation that triggered them.

func (uc *DefaultStkPushUsecase) onTransition(ctx context.Context, res domain.UpsertResult, source domain.TransactionSource) {
	tx := res.Transaction
	if uc.Metrics != nil {
		var createdAt time.Time
		if !res.Created {
			createdAt = tx.CreatedAt
		}
		uc.Metrics.RecordTransition(string(tx.Status), string(source), tx.Amount.InexactFloat64(), createdAt)
	}
	uc.recordStoreStats()

	if uc.Audit != nil {
		actx, cancel := detached(ctx)
		defer cancel()
		err := uc.Audit.LogTransition(actx, domain.TransitionAuditEntry{
			TransactionID: tx.ID,
			RequestID:     tx.RequestID,
			From:          domain.StatusPending,
			To:            tx.Status,
			Source:        source,
			ResultCode:    tx.ResultCode,
			ResultDetails: tx.ResultDetails,
			FailureReason: tx.FailureReason,
			OccurredAt:    uc.now(),
		})
		if err != nil {
			uc.log.Error("transition audit failed", zap.String("request_id", tx.RequestID), zap.Error(err))
		}
	}

	eventType := domain.EventFailed
	if tx.Status == domain.StatusCompleted {
		eventType = domain.EventCompleted
	}
	uc.publish(ctx, eventType, tx, source)
}

func (uc *DefaultStkPushUsecase) publish(ctx context.Context, eventType domain.EventType, tx *domain.Transaction, source domain.TransactionSource) {
	if uc.Publisher == nil || tx == nil {
		return
	}
	if source == "" {
		source = tx.Source
	}
	event := domain.TransactionEvent{
		EventID:       uuid.New().String(),
		Type:          eventType,
		TransactionID: tx.ID,
		RequestID:     tx.RequestID,
		Status:        tx.Status,
		Amount:        tx.Amount.String(),
		PayerAddress:  tx.PayerAddress,
		Reference:     tx.Reference,
		ResultCode:    tx.ResultCode,
		ResultDetails: tx.ResultDetails,
		FailureReason: tx.FailureReason,
		Source:        source,
		OccurredAt:    uc.now().UTC(),
	}

	pctx, cancel := detached(ctx)
	defer cancel()
	if err := uc.Publisher.PublishTransaction(pctx, event); err != nil {
		if uc.Metrics != nil {
			uc.Metrics.RecordPublishError()
		}
		uc.log.Error("event publish failed",
			zap.String("type", string(eventType)),
			zap.String("request_id", tx.RequestID),
			zap.Error(err),
		)
	}
}

// publishConflict reports the rejected outcome. stored is the record as it
// was kept.
func (uc *DefaultStkPushUsecase) publishConflict(ctx context.Context, stored *domain.Transaction, n stkpushdto.Notification, incoming domain.TransactionStatus, source domain.TransactionSource) {
	if stored == nil {
		return
	}
	rejected := stored.Clone()
	rejected.Status = incoming
	rejected.ResultCode = n.ResultCode
	rejected.FailureReason = n.ResultDesc
	uc.publish(ctx, domain.EventConflict, rejected, source)
}

func (uc *DefaultStkPushUsecase) auditCallback(entry domain.CallbackAuditEntry) {
	if uc.Audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := uc.Audit.LogCallback(ctx, entry); err != nil {
		uc.log.Error("callback audit failed", zap.String("request_id", entry.RequestID), zap.Error(err))
	}
}

func (uc *DefaultStkPushUsecase) recordInitiation(outcome string, amount decimal.Decimal, started time.Time) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordInitiation(outcome, amount.InexactFloat64(), uc.now().Sub(started))
}

func (uc *DefaultStkPushUsecase) recordCallback(outcome domain.CallbackOutcome) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordCallback(string(outcome))
}

func (uc *DefaultStkPushUsecase) recordResolution(result string) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordStatusResolution(result)
}

func (uc *DefaultStkPushUsecase) recordStoreStats() {
	if uc.Metrics == nil {
		return
	}
	s := uc.Store.Stats()
	uc.Metrics.SetStoreStats(s.Pending, s.Completed, s.Failed)
}

// detached keeps request values but not the caller's cancellation, so side
// effects of an accepted request are not cut short when the client goes away.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
}
