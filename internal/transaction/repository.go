package transaction

import "context"

// Repository is the persistence gateway. Every read and write is scoped to
// an owner; a record owned by someone else behaves as if it did not exist.
//
//go:generate mockgen -source=repository.go -destination=repository_mock.go -package=transaction
type Repository interface {
	// ValidID reports whether id is in the store's native identifier format.
	ValidID(id string) bool

	// CreateTransaction assigns ID, CreatedAt and UpdatedAt to tx.
	CreateTransaction(ctx context.Context, tx *Transaction) error
	// CreateTransactions inserts all of txs or none of them.
	CreateTransactions(ctx context.Context, txs []*Transaction) error

	// ListTransactions returns the owner's transactions, newest date first.
	// Equal dates keep insertion order.
	ListTransactions(ctx context.Context, ownerID string, filter ListFilter) ([]*Transaction, error)
	GetTransaction(ctx context.Context, id, ownerID string) (*Transaction, error)
	// UpdateTransaction applies patch in a single write and re-stamps UpdatedAt.
	UpdateTransaction(ctx context.Context, id, ownerID string, patch Patch) (*Transaction, error)
	// DeleteTransaction removes the record and returns it as it was.
	DeleteTransaction(ctx context.Context, id, ownerID string) (*Transaction, error)
}
