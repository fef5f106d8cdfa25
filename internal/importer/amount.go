package importer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// parseEuropeanAmount parses amounts written with "." thousands separators and
// a "," decimal mark: "1.234,56", "-588,74", "10,00 EUR".
func parseEuropeanAmount(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimSuffix(clean, "EUR")
	clean = strings.TrimSuffix(clean, "€")
	clean = strings.ReplaceAll(clean, " ", "")
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")

	// Statements never use exponent notation.
	if strings.ContainsAny(clean, "eE") {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}

	return decimal.NewFromString(clean)
}
