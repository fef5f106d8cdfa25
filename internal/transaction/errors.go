package transaction

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no transaction matches both id and owner.
	// A record owned by someone else is reported the same way.
	ErrNotFound = errors.New("transaction not found")

	// ErrInvalidID is returned when an id is not in the store's native format.
	ErrInvalidID = errors.New("invalid transaction id")

	// ErrUnauthenticated is returned when an operation is attempted without an owner.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrStorage marks failures of the persistence backend.
	ErrStorage = errors.New("storage failure")
)

// Violation describes a single field that failed validation.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// ValidationError lists every violation found in a payload, in check order.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field is among the violations.
func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}

	return false
}

// RowError is a validation failure of one imported row.
type RowError struct {
	Row        int
	Violations []Violation
}

// ImportError is returned when one or more imported rows fail validation.
// Nothing is persisted in that case.
type ImportError struct {
	Rows []RowError
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import rejected: %d invalid row(s)", len(e.Rows))
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
