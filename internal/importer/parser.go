package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/ARIHANT218/Finance-Tracker/internal/encoding"
	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

var (
	// ErrUnknownFormat is returned when no header row matches a supported profile.
	ErrUnknownFormat = errors.New("no matching CSV format found")
	// ErrUnknownProfile is returned when a profile is requested by a name that does not exist.
	ErrUnknownProfile = errors.New("unknown import profile")
)

// Result holds the payloads read from one file. They still need validation.
type Result struct {
	Profile  string
	Charset  string
	Payloads []transaction.Payload
}

// Parser reads CSV files in any of the supported profiles and turns each data
// row into a transaction payload.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse auto-detects the profile from the first header row that matches one.
// A non-empty profile name restricts detection to that profile.
func (p *Parser) Parse(r io.Reader, profile string) (*Result, error) {
	candidates := profiles

	if profile != "" {
		prof, ok := lookupProfile(profile)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, profile)
		}

		candidates = []Profile{*prof}
	}

	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	for i := range candidates {
		prof := &candidates[i]

		rows, err := readRows(data, prof.Comma)
		if err != nil {
			continue
		}

		header, headerIdx, ok := findHeader(prof, rows)
		if !ok {
			continue
		}

		return &Result{
			Profile:  prof.Name,
			Charset:  utf8r.Charset,
			Payloads: parseRows(prof, header, rows[headerIdx+1:]),
		}, nil
	}

	return nil, fmt.Errorf("%w: expected a header for one of %s", ErrUnknownFormat, strings.Join(Profiles(), ", "))
}

func readRows(data []byte, comma rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return rows, nil
}

// findHeader scans past any preamble for the first row carrying every
// required column of prof.
func findHeader(prof *Profile, rows [][]string) (headerIndex, int, bool) {
	for i, row := range rows {
		header := newHeaderIndex(row)
		if header.matches(prof) {
			return header, i, true
		}
	}

	return nil, 0, false
}

func parseRows(prof *Profile, header headerIndex, rows [][]string) []transaction.Payload {
	payloads := make([]transaction.Payload, 0, len(rows))

	for _, row := range rows {
		if blank(row) {
			continue
		}

		var (
			payload transaction.Payload
			ok      bool
		)

		if prof.AmountMode == amountTyped {
			payload, ok = nativePayload(prof, header, row), true
		} else {
			payload, ok = statementPayload(prof, header, row)
		}

		if ok {
			payloads = append(payloads, payload)
		}
	}

	return payloads
}

// nativePayload copies cells as they are. Empty cells are left out so that
// validation reports them as missing.
func nativePayload(prof *Profile, header headerIndex, row []string) transaction.Payload {
	payload := make(transaction.Payload, 5)

	set := func(key string, c column) {
		if v := cellValue(row, header.find(c)); v != "" {
			payload[key] = v
		}
	}

	set("date", prof.Date)
	set("description", prof.Description)
	set("amount", prof.Amount)
	set("type", prof.Type)
	set("category", prof.Category)

	return payload
}

// statementPayload converts a bank statement row. Rows without a parseable
// date or a non-zero amount are footers or balance lines and are skipped.
func statementPayload(prof *Profile, header headerIndex, row []string) (transaction.Payload, bool) {
	date, err := time.Parse(prof.DateLayout, cellValue(row, header.find(prof.Date)))
	if err != nil {
		return nil, false
	}

	var (
		amount decimal.Decimal
		txType transaction.Type
		ok     bool
	)

	switch prof.AmountMode {
	case amountSigned:
		amount, txType, ok = signedAmount(cellValue(row, header.find(prof.Amount)))
	case amountSplit:
		amount, txType, ok = splitAmount(cellValue(row, header.find(prof.Debit)), cellValue(row, header.find(prof.Credit)))
	}

	if !ok {
		return nil, false
	}

	payload := transaction.Payload{
		"date":   date,
		"amount": amount,
		"type":   string(txType),
	}

	if desc := cellValue(row, header.find(prof.Description)); desc != "" {
		payload["description"] = desc
	}

	return payload, true
}

func signedAmount(s string) (decimal.Decimal, transaction.Type, bool) {
	if s == "" {
		return decimal.Zero, "", false
	}

	d, err := parseEuropeanAmount(s)
	if err != nil || d.IsZero() {
		return decimal.Zero, "", false
	}

	if d.IsNegative() {
		return d.Neg(), transaction.TypeExpense, true
	}

	return d, transaction.TypeIncome, true
}

func splitAmount(debit, credit string) (decimal.Decimal, transaction.Type, bool) {
	if debit != "" {
		if d, err := parseEuropeanAmount(debit); err == nil && !d.IsZero() {
			return d.Abs(), transaction.TypeExpense, true
		}
	}

	if credit != "" {
		if d, err := parseEuropeanAmount(credit); err == nil && !d.IsZero() {
			return d.Abs(), transaction.TypeIncome, true
		}
	}

	return decimal.Zero, "", false
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
