package stkpush

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	stkpushdto "github.com/LavaJover/shvark-stkpush-service/internal/usecase/dto/stkpush"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxReferenceLen   = 12
	maxDescriptionLen = 13
)

func (uc *DefaultStkPushUsecase) Initiate(ctx context.Context, input *stkpushdto.InitiateInput) (*stkpushdto.InitiateOutput, error) {
	started := uc.now()

	amount, err := chargeableAmount(input.Amount)
	if err != nil {
		uc.recordInitiation("invalid", decimal.Zero, started)
		return nil, err
	}
	phone, err := NormalizeMSISDN(input.PayerAddress)
	if err != nil {
		uc.recordInitiation("invalid", decimal.Zero, started)
		return nil, err
	}
	reference := truncateRunes(orDefault(input.Reference, uc.cfg.DefaultReference), maxReferenceLen)
	description := truncateRunes(orDefault(input.Description, uc.cfg.DefaultDescription), maxDescriptionLen)

	token, err := uc.Tokens.Token(ctx)
	if err != nil {
		uc.recordInitiation("auth_failed", decimal.Zero, started)
		uc.log.Error("access token unavailable", zap.Error(err))
		return nil, &domain.GatewayError{Kind: domain.ErrUpstreamAuthFailure, Op: "initiate", Err: err}
	}

	resp, err := uc.Gateway.SubmitPush(ctx, token, domain.PushRequest{
		Amount:       amount.IntPart(),
		PayerAddress: phone,
		Reference:    reference,
		Description:  description,
	})
	if err != nil {
		uc.recordInitiation(failureOutcome(err), decimal.Zero, started)
		uc.log.Error("push submission failed", zap.String("payer", phone), zap.Error(err))
		return nil, err
	}
	if !resp.Accepted() || resp.RequestID == "" {
		uc.recordInitiation("rejected", decimal.Zero, started)
		uc.log.Warn("push rejected",
			zap.String("payer", phone),
			zap.String("response_code", resp.ResponseCode),
			zap.String("response_description", resp.ResponseDescription),
		)
		desc := resp.ResponseDescription
		if resp.Accepted() {
			desc = "accepted without CheckoutRequestID"
		}
		return nil, &domain.GatewayError{
			Kind:        domain.ErrUpstreamRejected,
			Op:          "submit_push",
			HTTPStatus:  200,
			Code:        resp.ResponseCode,
			Description: desc,
		}
	}

	tx := &domain.Transaction{
		ID:             uc.newID(),
		RequestID:      resp.RequestID,
		CounterpartyID: resp.CounterpartyID,
		PayerAddress:   phone,
		Amount:         amount,
		Reference:      reference,
		Description:    description,
		Status:         domain.StatusPending,
		PromptMessage:  resp.CustomerMessage,
		Source:         domain.SourceInitiation,
		CreatedAt:      uc.now(),
	}

	stored, err := uc.storeInitiated(tx)
	if err != nil {
		uc.recordInitiation("store_failed", decimal.Zero, started)
		return nil, err
	}

	uc.recordInitiation("accepted", amount, started)
	uc.recordStoreStats()
	uc.publish(ctx, domain.EventInitiated, stored, "")
	uc.log.Info("push initiated",
		zap.String("transaction_id", stored.ID),
		zap.String("request_id", stored.RequestID),
		zap.String("payer", phone),
		zap.String("amount", amount.String()),
	)

	return &stkpushdto.InitiateOutput{
		TransactionID:  stored.ID,
		RequestID:      stored.RequestID,
		CounterpartyID: stored.CounterpartyID,
		PromptMessage:  stored.PromptMessage,
		PayerAddress:   stored.PayerAddress,
		Amount:         stored.Amount,
		Reference:      stored.Reference,
		Description:    stored.Description,
		Status:         stored.Status,
	}, nil
}

// storeInitiated inserts the pending record. A callback can beat the insert
// and synthesize the record first; the initiation facts are then merged into
// it and its status is kept.
func (uc *DefaultStkPushUsecase) storeInitiated(tx *domain.Transaction) (*domain.Transaction, error) {
	err := uc.Store.Insert(tx.RequestID, tx)
	if err == nil {
		return tx, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return nil, err
	}

	uc.log.Warn("record already present at initiation", zap.String("request_id", tx.RequestID))
	res, err := uc.Store.UpsertOnCallback(tx.RequestID, func(existing *domain.Transaction, found bool) error {
		if !found {
			*existing = *tx.Clone()
			return nil
		}
		existing.ID = tx.ID
		existing.CounterpartyID = orDefault(existing.CounterpartyID, tx.CounterpartyID)
		existing.PayerAddress = tx.PayerAddress
		existing.Amount = tx.Amount
		existing.Reference = tx.Reference
		existing.Description = tx.Description
		existing.PromptMessage = tx.PromptMessage
		existing.Source = domain.SourceInitiation
		existing.CreatedAt = tx.CreatedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res.Transaction, nil
}

// chargeableAmount is the integer amount the gateway will charge.
func chargeableAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.NewInvalidInput("amount", "must be a positive number")
	}
	floored := amount.Floor()
	if floored.LessThan(decimal.NewFromInt(1)) {
		return decimal.Zero, domain.NewInvalidInput("amount", "must be at least 1 after rounding down")
	}
	return floored, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func failureOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrUpstreamAuthFailure):
		return "auth_failed"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrUpstreamRejected):
		return "rejected"
	default:
		return "error"
	}
}
