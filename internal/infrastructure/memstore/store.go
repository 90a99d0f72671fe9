// Package memstore holds the in-memory correlation store. State lives for the
// lifetime of the process only.
package memstore

import (
	"sync"
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
)

type TransactionStore struct {
	mu    sync.RWMutex
	byReq map[string]*domain.Transaction
	now   func() time.Time
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		byReq: make(map[string]*domain.Transaction),
		now:   time.Now,
	}
}

func (s *TransactionStore) Insert(requestID string, tx *domain.Transaction) error {
	if requestID == "" || tx == nil {
		return domain.NewInvalidInput("request_id", "cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byReq[requestID]; ok {
		return domain.ErrConflict
	}
	stored := tx.Clone()
	stored.RequestID = requestID
	s.byReq[requestID] = stored
	return nil
}

func (s *TransactionStore) Get(requestID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.byReq[requestID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return tx.Clone(), nil
}

// UpsertOnCallback runs mutate on a copy of the record (or on a pending shell when
// absent) and commits the copy only when mutate succeeds. The whole step runs
// under the write lock, so concurrent upserts for one request id never lose updates.
func (s *TransactionStore) UpsertOnCallback(requestID string, mutate domain.Mutation) (domain.UpsertResult, error) {
	if requestID == "" {
		return domain.UpsertResult{}, domain.NewInvalidInput("request_id", "cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, found := s.byReq[requestID]
	var work *domain.Transaction
	previous := domain.StatusPending
	if found {
		work = current.Clone()
		previous = current.Status
	} else {
		work = &domain.Transaction{
			RequestID: requestID,
			Status:    domain.StatusPending,
			CreatedAt: s.now(),
		}
	}

	if err := mutate(work, found); err != nil {
		var snapshot *domain.Transaction
		if found {
			snapshot = current.Clone()
		}
		return domain.UpsertResult{Transaction: snapshot, Previous: previous}, err
	}

	// the key is the correlation id and cannot be rewritten by a mutation
	work.RequestID = requestID
	s.byReq[requestID] = work

	return domain.UpsertResult{
		Transaction: work.Clone(),
		Previous:    previous,
		Created:     !found,
	}, nil
}

func (s *TransactionStore) ListPending(olderThan time.Duration) []*domain.Transaction {
	cutoff := s.now().Add(-olderThan)

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Transaction, 0)
	for _, tx := range s.byReq {
		if tx.Status == domain.StatusPending && !tx.CreatedAt.After(cutoff) {
			result = append(result, tx.Clone())
		}
	}
	return result
}

func (s *TransactionStore) Stats() domain.StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.StoreStats{Total: len(s.byReq)}
	for _, tx := range s.byReq {
		switch tx.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusCompleted:
			stats.Completed++
		case domain.StatusFailed:
			stats.Failed++
		}
	}
	return stats
}

func (s *TransactionStore) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.byReq)
	s.byReq = make(map[string]*domain.Transaction)
	return n
}
