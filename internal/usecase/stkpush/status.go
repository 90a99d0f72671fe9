package stkpush

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	stkpushdto "github.com/LavaJover/shvark-stkpush-service/internal/usecase/dto/stkpush"
	"go.uber.org/zap"
)

// Resolve reports the current truth about a push. Terminal records are
// answered from the store. Otherwise the gateway is queried and a settled
// answer is written back through the reconciliation policy. Query failures
// yield StatusUnknown, never an error.
func (uc *DefaultStkPushUsecase) Resolve(ctx context.Context, requestID string) (stkpushdto.Resolution, error) {
	if requestID == "" {
		return stkpushdto.Resolution{}, domain.NewInvalidInput("checkoutRequestId", "is required")
	}

	tx, err := uc.Store.Get(requestID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return stkpushdto.Resolution{}, err
	}
	if tx != nil && tx.Status.IsTerminal() {
		uc.recordResolution("store")
		return stkpushdto.Resolution{Status: tx.Status, Transaction: tx, Source: stkpushdto.ResolvedFromStore}, nil
	}

	if !uc.cfg.QueryFallback {
		if tx == nil {
			uc.recordResolution("not_found")
			return stkpushdto.Resolution{}, domain.ErrNotFound
		}
		uc.recordResolution("store")
		return stkpushdto.Resolution{Status: tx.Status, Transaction: tx, Source: stkpushdto.ResolvedFromStore}, nil
	}

	token, err := uc.Tokens.Token(ctx)
	if err != nil {
		uc.log.Warn("status query skipped, no access token", zap.String("request_id", requestID), zap.Error(err))
		return uc.unknown(tx, "failed to query transaction status"), nil
	}

	q, err := uc.Gateway.QueryStatus(ctx, token, requestID)
	if err != nil {
		uc.log.Warn("status query failed", zap.String("request_id", requestID), zap.Error(err))
		return uc.unknown(tx, "failed to query transaction status"), nil
	}

	switch q.ResultCode {
	case "":
		uc.log.Warn("status query returned no result code",
			zap.String("request_id", requestID),
			zap.String("response_code", q.ResponseCode),
		)
		return uc.unknown(tx, "gateway returned no result"), nil
	case uc.cfg.PendingResultCode:
		uc.recordResolution("pending")
		return stkpushdto.Resolution{
			Status:      domain.StatusPending,
			Transaction: tx,
			Source:      stkpushdto.ResolvedFromGateway,
			Message:     "Payment is still being processed",
		}, nil
	}

	res, err := uc.reconcile(ctx, stkpushdto.Notification{
		RequestID:  requestID,
		ResultCode: q.ResultCode,
		ResultDesc: q.ResultDesc,
	}, domain.SourceQuery)
	if err != nil {
		if errors.Is(err, domain.ErrReconciliationConflict) && res.Transaction != nil {
			// a callback settled it first; the stored outcome stands
			uc.recordResolution("store")
			return stkpushdto.Resolution{Status: res.Transaction.Status, Transaction: res.Transaction, Source: stkpushdto.ResolvedFromStore}, nil
		}
		return uc.unknown(tx, "failed to record transaction status"), nil
	}

	uc.recordResolution(string(res.Transaction.Status))
	return stkpushdto.Resolution{
		Status:      res.Transaction.Status,
		Transaction: res.Transaction,
		Source:      stkpushdto.ResolvedFromGateway,
		Message:     q.ResultDesc,
	}, nil
}

func (uc *DefaultStkPushUsecase) unknown(tx *domain.Transaction, msg string) stkpushdto.Resolution {
	uc.recordResolution("unknown")
	return stkpushdto.Resolution{Status: domain.StatusUnknown, Transaction: tx, Message: msg}
}
