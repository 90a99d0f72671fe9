package stkpush

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	stkpushdto "github.com/LavaJover/shvark-stkpush-service/internal/usecase/dto/stkpush"
	"go.uber.org/zap"
)

const sideEffectTimeout = 5 * time.Second

type callbackEnvelope struct {
	Body struct {
		StkCallback *stkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type stkCallback struct {
	MerchantRequestID string             `json:"MerchantRequestID"`
	CheckoutRequestID string             `json:"CheckoutRequestID"`
	ResultCode        *domain.ResultCode `json:"ResultCode"`
	ResultDesc        string             `json:"ResultDesc"`
	CallbackMetadata  *struct {
		Item []struct {
			Name  string `json:"Name"`
			Value any    `json:"Value"`
		} `json:"Item"`
	} `json:"CallbackMetadata"`
}

// ParseNotification decodes a gateway callback body.
func ParseNotification(raw []byte) (stkpushdto.Notification, error) {
	var env callbackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return stkpushdto.Notification{}, fmt.Errorf("%w: decode callback: %v", domain.ErrInvalidInput, err)
	}
	cb := env.Body.StkCallback
	if cb == nil {
		return stkpushdto.Notification{}, fmt.Errorf("%w: callback has no Body.stkCallback", domain.ErrInvalidInput)
	}
	if cb.CheckoutRequestID == "" {
		return stkpushdto.Notification{}, fmt.Errorf("%w: callback has no CheckoutRequestID", domain.ErrInvalidInput)
	}
	if cb.ResultCode == nil || *cb.ResultCode == "" {
		return stkpushdto.Notification{}, fmt.Errorf("%w: callback has no ResultCode", domain.ErrInvalidInput)
	}

	n := stkpushdto.Notification{
		RequestID:      cb.CheckoutRequestID,
		CounterpartyID: cb.MerchantRequestID,
		ResultCode:     cb.ResultCode.String(),
		ResultDesc:     cb.ResultDesc,
	}
	if cb.CallbackMetadata != nil {
		for _, it := range cb.CallbackMetadata.Item {
			if it.Name == "" {
				continue
			}
			n.Items = append(n.Items, stkpushdto.Item{Name: it.Name, Value: it.Value})
		}
	}
	return n, nil
}

// AcceptCallback is called after the gateway has been acknowledged. It never
// fails: payloads that cannot be handled are dead-lettered, and
// reconciliation runs on the dispatcher, ordered per request id.
func (uc *DefaultStkPushUsecase) AcceptCallback(raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			uc.log.Error("panic while accepting callback", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	receivedAt := uc.now()
	n, err := ParseNotification(raw)
	if err != nil {
		uc.log.Warn("undecodable callback", zap.Error(err), zap.ByteString("payload", raw))
		uc.deadLetter(raw, err.Error())
		uc.recordCallback(domain.CallbackFailed)
		uc.auditCallback(domain.CallbackAuditEntry{
			Outcome:    domain.CallbackFailed,
			Payload:    raw,
			Error:      err.Error(),
			ReceivedAt: receivedAt,
		})
		return
	}

	uc.log.Info("callback received",
		zap.String("request_id", n.RequestID),
		zap.String("result_code", n.ResultCode),
		zap.String("result_desc", n.ResultDesc),
	)

	err = uc.Dispatcher.Submit(n.RequestID, func(ctx context.Context) {
		uc.processCallback(ctx, n, raw, receivedAt)
	})
	if err != nil {
		uc.log.Error("callback not scheduled", zap.String("request_id", n.RequestID), zap.Error(err))
		uc.deadLetter(raw, err.Error())
		uc.recordCallback(domain.CallbackFailed)
	}
}

func (uc *DefaultStkPushUsecase) processCallback(ctx context.Context, n stkpushdto.Notification, raw []byte, receivedAt time.Time) {
	entry := domain.CallbackAuditEntry{
		RequestID:      n.RequestID,
		CounterpartyID: n.CounterpartyID,
		ResultCode:     n.ResultCode,
		ResultDesc:     n.ResultDesc,
		Payload:        raw,
		ReceivedAt:     receivedAt,
	}

	res, err := uc.Reconcile(ctx, n)
	entry.Outcome = res.Outcome
	if res.Transaction != nil {
		entry.StoredStatus = res.Transaction.Status
	}
	if err != nil {
		entry.Error = err.Error()
		if !errors.Is(err, domain.ErrReconciliationConflict) {
			uc.deadLetter(raw, err.Error())
		}
	}
	uc.recordCallback(res.Outcome)
	uc.auditCallback(entry)
}

func (uc *DefaultStkPushUsecase) deadLetter(raw []byte, reason string) {
	if uc.DLQ == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := uc.DLQ.Send(ctx, raw, reason); err != nil {
		uc.log.Error("dead letter failed", zap.String("reason", reason), zap.Error(err))
	}
}
