package transaction

import (
	"context"
	"errors"
	"time"
)

type Service struct {
	repo      Repository
	validator *Validator
}

// Option configures a Service.
type Option func(*options)

type options struct {
	policy AmountPolicy
	now    func() time.Time
}

// WithAmountPolicy sets the rule applied to amounts. Defaults to AmountPositive.
func WithAmountPolicy(p AmountPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithClock sets the time source used for defaulting a missing date.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	o := options{policy: AmountPositive, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Service{
		repo:      repo,
		validator: NewValidator(o.policy, o.now),
	}
}

func (s *Service) Create(ctx context.Context, ownerID string, p Payload) (*Transaction, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	tx, err := s.validator.ValidateCreate(p, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, storageError("creating transaction", err)
	}

	return tx, nil
}

func (s *Service) List(ctx context.Context, ownerID string, filter ListFilter) ([]*Transaction, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	txs, err := s.repo.ListTransactions(ctx, ownerID, filter)
	if err != nil {
		return nil, storageError("listing transactions", err)
	}

	return txs, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (*Transaction, error) {
	if err := s.checkScope(ownerID, id); err != nil {
		return nil, err
	}

	tx, err := s.repo.GetTransaction(ctx, id, ownerID)
	if err != nil {
		return nil, gatewayError("getting transaction", err)
	}

	return tx, nil
}

// Update applies the fields supplied in p. An empty payload changes nothing
// and returns the current record.
func (s *Service) Update(ctx context.Context, ownerID, id string, p Payload) (*Transaction, error) {
	if err := s.checkScope(ownerID, id); err != nil {
		return nil, err
	}

	patch, err := s.validator.ValidateUpdate(p)
	if err != nil {
		return nil, err
	}

	if patch.Empty() {
		tx, err := s.repo.GetTransaction(ctx, id, ownerID)
		if err != nil {
			return nil, gatewayError("getting transaction", err)
		}

		return tx, nil
	}

	tx, err := s.repo.UpdateTransaction(ctx, id, ownerID, *patch)
	if err != nil {
		return nil, gatewayError("updating transaction", err)
	}

	return tx, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) (*Transaction, error) {
	if err := s.checkScope(ownerID, id); err != nil {
		return nil, err
	}

	tx, err := s.repo.DeleteTransaction(ctx, id, ownerID)
	if err != nil {
		return nil, gatewayError("deleting transaction", err)
	}

	return tx, nil
}

// Import validates every payload and persists them together. If any row is
// invalid an *ImportError is returned and nothing is written. Row numbers
// start at 1.
func (s *Service) Import(ctx context.Context, ownerID string, payloads []Payload) ([]*Transaction, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	if len(payloads) == 0 {
		return nil, nil
	}

	var (
		txs     = make([]*Transaction, 0, len(payloads))
		rowErrs []RowError
	)

	for i, p := range payloads {
		tx, err := s.validator.ValidateCreate(p, ownerID)
		if err != nil {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				return nil, err
			}

			rowErrs = append(rowErrs, RowError{Row: i + 1, Violations: verr.Violations})

			continue
		}

		txs = append(txs, tx)
	}

	if len(rowErrs) > 0 {
		return nil, &ImportError{Rows: rowErrs}
	}

	if err := s.repo.CreateTransactions(ctx, txs); err != nil {
		return nil, storageError("importing transactions", err)
	}

	return txs, nil
}

func (s *Service) checkScope(ownerID, id string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}

	if !s.repo.ValidID(id) {
		return ErrInvalidID
	}

	return nil
}

// gatewayError passes ErrNotFound through and marks everything else as a
// storage failure.
func gatewayError(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}

	return storageError(op, err)
}
