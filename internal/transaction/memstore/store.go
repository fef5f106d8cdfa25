// Package memstore keeps transactions in process memory. It backs the
// "memory" storage driver and the HTTP tests.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

type record struct {
	seq int64
	tx  transaction.Transaction
}

type Store struct {
	mu      sync.RWMutex
	seq     int64
	records map[string]*record
	now     func() time.Time
}

func New() *Store {
	return &Store{
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// WithClock replaces the time source used for CreatedAt and UpdatedAt.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.insert(tx)

	return nil
}

func (s *Store) CreateTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txs {
		s.insert(tx)
	}

	return nil
}

func (s *Store) insert(tx *transaction.Transaction) {
	now := s.now().UTC()

	tx.ID = uuid.NewString()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	s.seq++
	s.records[tx.ID] = &record{seq: s.seq, tx: *tx}
}

func (s *Store) ListTransactions(ctx context.Context, ownerID string, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()

	matched := make([]*record, 0, len(s.records))
	for _, r := range s.records {
		if r.tx.OwnerID == ownerID && filter.Match(&r.tx) {
			matched = append(matched, r)
		}
	}

	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *record) int {
		if c := b.tx.Date.Compare(a.tx.Date); c != 0 {
			return c
		}

		return int(a.seq - b.seq)
	})

	txs := make([]*transaction.Transaction, len(matched))
	for i, r := range matched {
		tx := r.tx
		txs[i] = &tx
	}

	return txs, nil
}

func (s *Store) GetTransaction(ctx context.Context, id, ownerID string) (*transaction.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.owned(id, ownerID)
	if !ok {
		return nil, transaction.ErrNotFound
	}

	tx := r.tx

	return &tx, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, id, ownerID string, patch transaction.Patch) (*transaction.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.owned(id, ownerID)
	if !ok {
		return nil, transaction.ErrNotFound
	}

	patch.Apply(&r.tx)
	r.tx.UpdatedAt = s.now().UTC()

	tx := r.tx

	return &tx, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id, ownerID string) (*transaction.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.owned(id, ownerID)
	if !ok {
		return nil, transaction.ErrNotFound
	}

	delete(s.records, r.tx.ID)

	tx := r.tx

	return &tx, nil
}

// owned must be called with s.mu held. Any form uuid.Parse accepts finds the
// record, as it does in the Postgres store.
func (s *Store) owned(id, ownerID string) (*record, bool) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, false
	}

	r, ok := s.records[uid.String()]
	if !ok || r.tx.OwnerID != ownerID {
		return nil, false
	}

	return r, true
}
