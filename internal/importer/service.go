package importer

import (
	"context"
	"io"
	"log/slog"

	"github.com/ARIHANT218/Finance-Tracker/internal/matching"
	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

// Report describes a completed import.
type Report struct {
	Profile      string
	Charset      string
	Categorized  int
	Transactions []*transaction.Transaction
}

type Service struct {
	parser       *Parser
	transactions *transaction.Service
	matcher      *matching.Service
}

// NewService returns an import service. matcher may be nil, in which case rows
// without a category stay uncategorized.
func NewService(txService *transaction.Service, matcher *matching.Service) *Service {
	return &Service{
		parser:       NewParser(),
		transactions: txService,
		matcher:      matcher,
	}
}

// Import parses r and stores every row for ownerID, or nothing if any row
// fails validation. An empty profile auto-detects the format.
func (s *Service) Import(ctx context.Context, ownerID string, r io.Reader, profile string) (*Report, error) {
	result, err := s.parser.Parse(r, profile)
	if err != nil {
		return nil, err
	}

	categorized, err := s.categorize(ctx, ownerID, result.Payloads)
	if err != nil {
		return nil, err
	}

	slog.Debug("parsed import file",
		"profile", result.Profile, "charset", result.Charset,
		"rows", len(result.Payloads), "categorized", categorized)

	txs, err := s.transactions.Import(ctx, ownerID, result.Payloads)
	if err != nil {
		return nil, err
	}

	return &Report{
		Profile:      result.Profile,
		Charset:      result.Charset,
		Categorized:  categorized,
		Transactions: txs,
	}, nil
}

// categorize fills the category of payloads that have none from the owner's
// history and returns how many it filled.
func (s *Service) categorize(ctx context.Context, ownerID string, payloads []transaction.Payload) (int, error) {
	if s.matcher == nil || ownerID == "" || len(payloads) == 0 {
		return 0, nil
	}

	ix, err := s.matcher.Index(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	n := 0

	for _, p := range payloads {
		if _, ok := p["category"]; ok {
			continue
		}

		desc, _ := p["description"].(string)
		if category := ix.Match(desc); category != "" {
			p["category"] = category
			n++
		}
	}

	return n, nil
}
