package domain

import "time"

// Mutation is applied by the store to a private copy of the record for a request id.
// found is false when the store had no record and tx is a fresh pending shell.
// Returning an error discards the copy.
type Mutation func(tx *Transaction, found bool) error

type UpsertResult struct {
	Transaction *Transaction
	Previous    TransactionStatus
	Created     bool
}

// Transitioned reports whether the upsert moved the record out of pending.
func (r UpsertResult) Transitioned() bool {
	return (r.Created || r.Previous == StatusPending) && r.Transaction.Status.IsTerminal()
}

type StoreStats struct {
	Total     int
	Pending   int
	Completed int
	Failed    int
}

type CorrelationStore interface {
	Insert(requestID string, tx *Transaction) error
	Get(requestID string) (*Transaction, error)
	UpsertOnCallback(requestID string, mutate Mutation) (UpsertResult, error)
	ListPending(olderThan time.Duration) []*Transaction
	Stats() StoreStats
	Clear() int
}
