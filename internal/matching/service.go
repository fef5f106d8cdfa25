// Package matching suggests categories for new transactions from the
// categories an owner already gave to similar descriptions.
package matching

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

// Lister returns an owner's transactions, newest first.
type Lister interface {
	List(ctx context.Context, ownerID string, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

type Service struct {
	transactions Lister
}

func NewService(transactions Lister) *Service {
	return &Service{transactions: transactions}
}

type pattern struct {
	text     string
	category string
}

// Index is a snapshot of an owner's description to category history.
type Index struct {
	patterns []pattern
}

// Index builds the owner's matching index. Uncategorized transactions teach nothing.
func (s *Service) Index(ctx context.Context, ownerID string) (*Index, error) {
	txs, err := s.transactions.List(ctx, ownerID, transaction.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	seen := make(map[string]bool, len(txs))
	ix := &Index{patterns: make([]pattern, 0, len(txs))}

	// txs is newest first, so the first category seen for a description wins.
	for _, tx := range txs {
		text := normalize(tx.Description)
		if text == "" || tx.Category == transaction.DefaultCategory || seen[text] {
			continue
		}

		seen[text] = true
		ix.patterns = append(ix.patterns, pattern{text: text, category: tx.Category})
	}

	// Longest pattern first. The stable sort keeps newer entries ahead on ties.
	slices.SortStableFunc(ix.patterns, func(a, b pattern) int {
		return cmp.Compare(len(b.text), len(a.text))
	})

	return ix, nil
}

// Match returns the category of the longest known description contained in
// description, or "" when none is.
func (ix *Index) Match(description string) string {
	text := normalize(description)
	if text == "" {
		return ""
	}

	for _, p := range ix.patterns {
		if strings.Contains(text, p.text) {
			return p.category
		}
	}

	return ""
}

// Suggest is Index followed by Match for a single description.
func (s *Service) Suggest(ctx context.Context, ownerID, description string) (string, error) {
	ix, err := s.Index(ctx, ownerID)
	if err != nil {
		return "", err
	}

	return ix.Match(description), nil
}

// normalize lower-cases and collapses runs of whitespace, which bank exports
// use for padding.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
