package importer

import "strings"

// amountMode determines how amount and type are read from a row.
type amountMode int

const (
	// amountTyped means an unsigned amount column next to an explicit type column.
	amountTyped amountMode = iota
	// amountSigned means one signed column; negative values are expenses.
	amountSigned
	// amountSplit means separate debit and credit columns.
	amountSplit
)

// column lists the header names accepted for one field, compared case-insensitively.
type column []string

// Profile describes the layout of one supported CSV format.
type Profile struct {
	Name  string
	Comma rune
	// DateLayout parses the date column. Empty means the cell is passed
	// through to payload validation unchanged.
	DateLayout string
	AmountMode amountMode

	Date        column
	Description column
	Amount      column // amountTyped and amountSigned
	Type        column // amountTyped
	Category    column // optional
	Debit       column // amountSplit
	Credit      column // amountSplit
}

const (
	ProfileNative    = "native"
	ProfileStatement = "statement"
	ProfileCard      = "card"
)

// profiles is tried in order during auto-detection. More specific layouts
// come first.
var profiles = []Profile{
	{
		Name:        ProfileNative,
		Comma:       ',',
		AmountMode:  amountTyped,
		Date:        column{"date"},
		Description: column{"description"},
		Amount:      column{"amount"},
		Type:        column{"type"},
		Category:    column{"category"},
	},
	{
		Name:        ProfileCard,
		Comma:       ';',
		DateLayout:  "02-01-2006",
		AmountMode:  amountSplit,
		Date:        column{"Date", "Data"},
		Description: column{"Description", "Descrição"},
		Debit:       column{"Debit", "Débito"},
		Credit:      column{"Credit", "Crédito"},
	},
	{
		Name:        ProfileStatement,
		Comma:       ';',
		DateLayout:  "02-01-2006",
		AmountMode:  amountSigned,
		Date:        column{"Date", "Data mov."},
		Description: column{"Description", "Descrição"},
		Amount:      column{"Amount", "Montante", "Movimento"},
	},
}

// Profiles returns the names of the supported formats.
func Profiles() []string {
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}

	return names
}

func lookupProfile(name string) (*Profile, bool) {
	for i := range profiles {
		if profiles[i].Name == name {
			return &profiles[i], true
		}
	}

	return nil, false
}

// requiredCols returns the columns that must be present for this profile to match.
func (p *Profile) requiredCols() []column {
	cols := []column{p.Date, p.Description}

	switch p.AmountMode {
	case amountTyped:
		cols = append(cols, p.Amount, p.Type)
	case amountSigned:
		cols = append(cols, p.Amount)
	case amountSplit:
		cols = append(cols, p.Debit, p.Credit)
	}

	return cols
}

// headerIndex maps lower-cased header names to their position in the row.
type headerIndex map[string]int

func newHeaderIndex(row []string) headerIndex {
	idx := make(headerIndex, len(row))

	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))
		if _, dup := idx[name]; name != "" && !dup {
			idx[name] = i
		}
	}

	return idx
}

// find returns the position of the first accepted name for c, or -1.
func (h headerIndex) find(c column) int {
	for _, name := range c {
		if i, ok := h[strings.ToLower(name)]; ok {
			return i
		}
	}

	return -1
}

func (h headerIndex) matches(p *Profile) bool {
	for _, c := range p.requiredCols() {
		if h.find(c) < 0 {
			return false
		}
	}

	return true
}
