package stkpush

import (
	"context"
	"errors"
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	stkpushdto "github.com/LavaJover/shvark-stkpush-service/internal/usecase/dto/stkpush"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const successResultCode = "0"

// Reconcile applies a gateway callback to the store.
//
//	pending            -> completed or failed
//	terminal, same     -> no-op (duplicate), except that a completed record
//	                      without details takes the callback items (enriched)
//	terminal, differs  -> ConflictingOutcomeError, state kept
//	unknown request id -> terminal record synthesized
func (uc *DefaultStkPushUsecase) Reconcile(ctx context.Context, n stkpushdto.Notification) (stkpushdto.ReconcileResult, error) {
	return uc.reconcile(ctx, n, domain.SourceCallback)
}

func (uc *DefaultStkPushUsecase) reconcile(ctx context.Context, n stkpushdto.Notification, source domain.TransactionSource) (stkpushdto.ReconcileResult, error) {
	if n.RequestID == "" {
		return stkpushdto.ReconcileResult{Outcome: domain.CallbackFailed}, domain.NewInvalidInput("request_id", "cannot be empty")
	}

	incoming := outcomeStatus(n.ResultCode)
	now := uc.now()
	duplicate, enriched := false, false

	res, err := uc.Store.UpsertOnCallback(n.RequestID, func(tx *domain.Transaction, found bool) error {
		if !found {
			tx.ID = uc.newID()
			tx.Source = source
			tx.CounterpartyID = n.CounterpartyID
			fillFromItems(tx, n.Items)
		}
		if tx.Status.IsTerminal() {
			if tx.Status == incoming {
				if enrichDetails(tx, n) {
					enriched = true
					return nil
				}
				duplicate = true
				return nil
			}
			return &domain.ConflictingOutcomeError{RequestID: n.RequestID, Stored: tx.Status, Incoming: incoming}
		}
		applyOutcome(tx, incoming, n, now)
		return nil
	})

	result := stkpushdto.ReconcileResult{Transaction: res.Transaction, Previous: res.Previous}
	switch {
	case errors.Is(err, domain.ErrReconciliationConflict):
		result.Outcome = domain.CallbackConflict
		uc.log.Warn("conflicting terminal outcome ignored",
			zap.String("request_id", n.RequestID),
			zap.String("stored", string(res.Previous)),
			zap.String("incoming", string(incoming)),
			zap.String("result_code", n.ResultCode),
			zap.String("source", string(source)),
		)
		uc.publishConflict(ctx, res.Transaction, n, incoming, source)
		return result, err
	case err != nil:
		result.Outcome = domain.CallbackFailed
		uc.log.Error("reconciliation failed", zap.String("request_id", n.RequestID), zap.Error(err))
		return result, err
	case enriched:
		result.Outcome = domain.CallbackEnriched
		uc.log.Info("completed transaction enriched with callback details",
			zap.String("request_id", n.RequestID),
			zap.String("transaction_id", res.Transaction.ID),
			zap.String("source", string(source)),
		)
		return result, nil
	case duplicate:
		result.Outcome = domain.CallbackDuplicate
		uc.log.Debug("duplicate outcome", zap.String("request_id", n.RequestID), zap.String("status", string(incoming)))
		return result, nil
	case res.Created:
		result.Outcome = domain.CallbackSynthesized
		uc.log.Warn("outcome for unknown request, record synthesized",
			zap.String("request_id", n.RequestID),
			zap.String("transaction_id", res.Transaction.ID),
			zap.String("status", string(incoming)),
			zap.String("source", string(source)),
		)
	default:
		result.Outcome = domain.CallbackApplied
		uc.log.Info("transaction resolved",
			zap.String("request_id", n.RequestID),
			zap.String("transaction_id", res.Transaction.ID),
			zap.String("status", string(incoming)),
			zap.String("source", string(source)),
		)
	}

	if res.Transitioned() {
		uc.onTransition(ctx, res, source)
	}
	return result, nil
}

func outcomeStatus(resultCode string) domain.TransactionStatus {
	if resultCode == successResultCode {
		return domain.StatusCompleted
	}
	return domain.StatusFailed
}

func applyOutcome(tx *domain.Transaction, status domain.TransactionStatus, n stkpushdto.Notification, now time.Time) {
	tx.Status = status
	tx.ResultCode = n.ResultCode
	resolved := now
	tx.ResolvedAt = &resolved

	if status == domain.StatusCompleted {
		details := make(map[string]any, len(n.Items))
		for _, it := range n.Items {
			details[it.Name] = it.Value
		}
		tx.ResultDetails = details
		tx.FailureReason = ""
		return
	}
	tx.ResultDetails = nil
	tx.FailureReason = n.ResultDesc
	if tx.FailureReason == "" {
		tx.FailureReason = "payment failed with result code " + n.ResultCode
	}
}

// enrichDetails folds callback items into a completed record that was settled
// by a status query, which carries no items. Status and ResolvedAt are kept.
func enrichDetails(tx *domain.Transaction, n stkpushdto.Notification) bool {
	if tx.Status != domain.StatusCompleted || len(tx.ResultDetails) > 0 || len(n.Items) == 0 {
		return false
	}
	details := make(map[string]any, len(n.Items))
	for _, it := range n.Items {
		details[it.Name] = it.Value
	}
	tx.ResultDetails = details
	if tx.CounterpartyID == "" {
		tx.CounterpartyID = n.CounterpartyID
	}
	return true
}

// fillFromItems recovers payer and amount for synthesized records.
func fillFromItems(tx *domain.Transaction, items []stkpushdto.Item) {
	for _, it := range items {
		switch it.Name {
		case "Amount":
			if f, ok := it.Value.(float64); ok {
				tx.Amount = decimal.NewFromFloat(f)
			}
		case "PhoneNumber":
			switch v := it.Value.(type) {
			case float64:
				tx.PayerAddress = decimal.NewFromFloat(v).String()
			case string:
				tx.PayerAddress = v
			}
		}
	}
}
