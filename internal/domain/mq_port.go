package domain

import (
	"context"
	"time"
)

type EventType string

const (
	EventInitiated EventType = "initiated"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventConflict  EventType = "conflict"
)

type TransactionEvent struct {
	EventID       string            `json:"event_id"`
	Type          EventType         `json:"type"`
	TransactionID string            `json:"transaction_id"`
	RequestID     string            `json:"request_id"`
	Status        TransactionStatus `json:"status"`
	Amount        string            `json:"amount"`
	PayerAddress  string            `json:"payer_address"`
	Reference     string            `json:"reference,omitempty"`
	ResultCode    string            `json:"result_code,omitempty"`
	ResultDetails map[string]any    `json:"result_details,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Source        TransactionSource `json:"source"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

type EventPublisher interface {
	PublishTransaction(ctx context.Context, event TransactionEvent) error
	Close() error
}

// DeadLetterQueue keeps callback payloads that could not be decoded.
type DeadLetterQueue interface {
	Send(ctx context.Context, payload []byte, reason string) error
}
