package stkpushdto

import "github.com/shopspring/decimal"

type InitiateInput struct {
	PayerAddress string
	Amount       decimal.Decimal
	Reference    string
	Description  string
}

// Notification is a decoded gateway callback, or a query result fed through
// the same reconciliation policy.
type Notification struct {
	RequestID      string
	CounterpartyID string
	ResultCode     string
	ResultDesc     string
	Items          []Item
}

// Item is one CallbackMetadata entry. Order is kept so later items win.
type Item struct {
	Name  string
	Value any
}
