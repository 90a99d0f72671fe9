package domain

import (
	"context"
	"time"
)

type CallbackOutcome string

const (
	CallbackApplied     CallbackOutcome = "applied"
	CallbackSynthesized CallbackOutcome = "synthesized"
	CallbackDuplicate   CallbackOutcome = "duplicate"
	CallbackEnriched    CallbackOutcome = "enriched"
	CallbackConflict    CallbackOutcome = "conflict"
	CallbackFailed      CallbackOutcome = "handle_failed"
)

type CallbackAuditEntry struct {
	RequestID      string
	CounterpartyID string
	ResultCode     string
	ResultDesc     string
	Outcome        CallbackOutcome
	StoredStatus   TransactionStatus
	Payload        []byte
	Error          string
	ReceivedAt     time.Time
}

type TransitionAuditEntry struct {
	TransactionID string
	RequestID     string
	From          TransactionStatus
	To            TransactionStatus
	Source        TransactionSource
	ResultCode    string
	ResultDetails map[string]any
	FailureReason string
	OccurredAt    time.Time
}

type AuditLogger interface {
	LogCallback(ctx context.Context, entry CallbackAuditEntry) error
	LogTransition(ctx context.Context, entry TransitionAuditEntry) error
}
