package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type represents the type of transaction (income or expense).
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// DefaultCategory is stored when a transaction is created without a category.
const DefaultCategory = "Uncategorized"

// Transaction represents a single income or expense entry owned by one user.
type Transaction struct {
	ID          string
	OwnerID     string
	Amount      decimal.Decimal // Two decimal places
	Description string
	Date        time.Time
	Type        Type
	Category    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Patch carries the fields supplied to an update. Nil fields are left untouched.
type Patch struct {
	Amount      *decimal.Decimal
	Description *string
	Date        *time.Time
	Type        *Type
	Category    *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Amount == nil && p.Description == nil && p.Date == nil && p.Type == nil && p.Category == nil
}

// Apply copies the supplied fields onto tx.
func (p Patch) Apply(tx *Transaction) {
	if p.Amount != nil {
		tx.Amount = *p.Amount
	}

	if p.Description != nil {
		tx.Description = *p.Description
	}

	if p.Date != nil {
		tx.Date = *p.Date
	}

	if p.Type != nil {
		tx.Type = *p.Type
	}

	if p.Category != nil {
		tx.Category = *p.Category
	}
}

// ListFilter narrows the transactions returned for an owner.
type ListFilter struct {
	Type      *Type
	StartDate *time.Time
	EndDate   *time.Time
}

// Match reports whether tx passes the filter. Stores that cannot push the
// filter down to the backend use it directly.
func (f ListFilter) Match(tx *Transaction) bool {
	if f.Type != nil && tx.Type != *f.Type {
		return false
	}

	if f.StartDate != nil && tx.Date.Before(*f.StartDate) {
		return false
	}

	if f.EndDate != nil && tx.Date.After(*f.EndDate) {
		return false
	}

	return true
}
