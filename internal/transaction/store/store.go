package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanTransaction reads a transaction row from the scanner and returns a populated Transaction.
// Expected column order: id, owner_id, amount, description, date, type, category, created_at, updated_at
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var (
		id      uuid.UUID
		typeStr string
	)

	if err := s.Scan(
		&id, &tx.OwnerID, &tx.Amount, &tx.Description, &tx.Date, &typeStr, &tx.Category,
		&tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	tx.ID = id.String()
	tx.Type = transaction.Type(typeStr)
	tx.Date = tx.Date.UTC()
	tx.CreatedAt = tx.CreatedAt.UTC()
	tx.UpdatedAt = tx.UpdatedAt.UTC()

	return &tx, nil
}

const returningColumns = `id, owner_id, amount, description, date, type, category, created_at, updated_at`

const insertQuery = `
	INSERT INTO transactions (owner_id, amount, description, date, type, category, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	RETURNING id, created_at, updated_at
`

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insert(ctx context.Context, q queryRower, tx *transaction.Transaction) error {
	var id uuid.UUID

	tx.Date = tx.Date.Truncate(time.Microsecond)

	err := q.QueryRowContext(ctx, insertQuery,
		tx.OwnerID,
		tx.Amount,
		tx.Description,
		tx.Date,
		tx.Type,
		tx.Category,
	).Scan(&id, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return err
	}

	tx.ID = id.String()
	tx.CreatedAt = tx.CreatedAt.UTC()
	tx.UpdatedAt = tx.UpdatedAt.UTC()

	return nil
}

func (s *Store) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	if err := insert(ctx, s.db, tx); err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

// CreateTransactions inserts all rows inside one database transaction.
func (s *Store) CreateTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	for _, tx := range txs {
		if err := insert(ctx, dbTx, tx); err != nil {
			return fmt.Errorf("creating transaction: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id, ownerID string) (*transaction.Transaction, error) {
	query := `SELECT ` + returningColumns + `
		FROM transactions
		WHERE id = $1 AND owner_id = $2`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, ownerID string, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + returningColumns + `
		FROM transactions
		WHERE owner_id = $1`

	args := []any{ownerID}

	argIdx := 2

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argIdx)

		args = append(args, *filter.Type)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY date DESC, seq ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]*transaction.Transaction, 0)

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return txs, nil
}

// UpdateTransaction builds a SET clause from the supplied patch fields only.
func (s *Store) UpdateTransaction(ctx context.Context, id, ownerID string, patch transaction.Patch) (*transaction.Transaction, error) {
	var (
		sets []string
		args []any
	)

	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Amount != nil {
		set("amount", *patch.Amount)
	}

	if patch.Description != nil {
		set("description", *patch.Description)
	}

	if patch.Date != nil {
		set("date", patch.Date.Truncate(time.Microsecond))
	}

	if patch.Type != nil {
		set("type", *patch.Type)
	}

	if patch.Category != nil {
		set("category", *patch.Category)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id, ownerID)

	query := fmt.Sprintf(`
		UPDATE transactions
		SET %s
		WHERE id = $%d AND owner_id = $%d
		RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), returningColumns)

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("updating transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id, ownerID string) (*transaction.Transaction, error) {
	query := `
		DELETE FROM transactions
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + returningColumns

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("deleting transaction: %w", err)
	}

	return tx, nil
}
