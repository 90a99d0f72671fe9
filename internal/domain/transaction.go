package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	// StatusUnknown is never stored. The status resolver returns it when neither
	// the store nor the gateway gave a conclusive answer.
	StatusUnknown TransactionStatus = "unknown"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type TransactionSource string

const (
	SourceInitiation TransactionSource = "initiation"
	SourceCallback   TransactionSource = "callback"
	SourceQuery      TransactionSource = "query"
)

type Transaction struct {
	ID             string
	RequestID      string
	CounterpartyID string

	PayerAddress string
	Amount       decimal.Decimal
	Reference    string
	Description  string

	Status        TransactionStatus
	ResultCode    string
	ResultDetails map[string]any
	FailureReason string
	PromptMessage string
	Source        TransactionSource

	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// Clone returns a deep copy so callers never share state with the store.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	if t.ResultDetails != nil {
		c.ResultDetails = make(map[string]any, len(t.ResultDetails))
		for k, v := range t.ResultDetails {
			c.ResultDetails[k] = v
		}
	}
	if t.ResolvedAt != nil {
		r := *t.ResolvedAt
		c.ResolvedAt = &r
	}
	return &c
}

// Synthesized reports whether the record was created by a path other than initiation.
func (t *Transaction) Synthesized() bool {
	return t.Source != SourceInitiation
}
