package stkpushdto

import (
	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	"github.com/shopspring/decimal"
)

type InitiateOutput struct {
	TransactionID  string
	RequestID      string
	CounterpartyID string
	PromptMessage  string
	PayerAddress   string
	Amount         decimal.Decimal
	Reference      string
	Description    string
	Status         domain.TransactionStatus
}

type ReconcileResult struct {
	Transaction *domain.Transaction
	Previous    domain.TransactionStatus
	Outcome     domain.CallbackOutcome
}

type ResolutionSource string

const (
	ResolvedFromStore   ResolutionSource = "store"
	ResolvedFromGateway ResolutionSource = "gateway"
)

// Resolution is the answer to a status lookup. Transaction is nil when the
// store has no record and the gateway could not settle the outcome.
type Resolution struct {
	Status      domain.TransactionStatus
	Transaction *domain.Transaction
	Source      ResolutionSource
	Message     string
}
