package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

// header matches the importer's native profile, so an export can be
// imported again unchanged.
var header = []string{"date", "description", "amount", "type", "category"}

// Summary totals the exported transactions.
type Summary struct {
	Count   int
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Balance is income minus expense.
func (s Summary) Balance() decimal.Decimal {
	return s.Income.Sub(s.Expense)
}

// Service writes an owner's transactions as CSV.
type Service struct {
	transactions *transaction.Service
}

func NewService(txService *transaction.Service) *Service {
	return &Service{transactions: txService}
}

// Export writes the transactions of ownerID matching filter to w, newest first.
func (s *Service) Export(ctx context.Context, ownerID string, filter transaction.ListFilter, w io.Writer) (Summary, error) {
	txs, err := s.transactions.List(ctx, ownerID, filter)
	if err != nil {
		return Summary{}, fmt.Errorf("listing transactions: %w", err)
	}

	return WriteCSV(w, txs)
}

// WriteCSV writes txs in the native import format and returns their totals.
func WriteCSV(w io.Writer, txs []*transaction.Transaction) (Summary, error) {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return Summary{}, fmt.Errorf("writing header: %w", err)
	}

	sum := Summary{Income: decimal.Zero, Expense: decimal.Zero}

	for _, tx := range txs {
		record := []string{
			tx.Date.UTC().Format(time.RFC3339Nano),
			tx.Description,
			tx.Amount.StringFixed(2),
			string(tx.Type),
			tx.Category,
		}

		if err := cw.Write(record); err != nil {
			return Summary{}, fmt.Errorf("writing transaction %s: %w", tx.ID, err)
		}

		sum.Count++

		if tx.Type == transaction.TypeIncome {
			sum.Income = sum.Income.Add(tx.Amount)
		} else {
			sum.Expense = sum.Expense.Add(tx.Amount)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return Summary{}, fmt.Errorf("flushing csv: %w", err)
	}

	return sum, nil
}

// Filename names an export created at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("transactions_%s.csv", t.Format("20060102"))
}
