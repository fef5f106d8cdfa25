package transaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Payload is a decoded JSON object as received from a client.
// Numbers are expected as json.Number (decoder.UseNumber), but plain
// float64 and numeric strings are accepted too.
type Payload map[string]any

// value returns the raw value for key. JSON null counts as absent.
func (p Payload) value(key string) (any, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, false
	}

	return v, true
}

// has reports whether key is present, even when null.
func (p Payload) has(key string) bool {
	_, ok := p[key]
	return ok
}

// AmountPolicy decides which amounts are accepted.
type AmountPolicy string

const (
	// AmountPositive accepts amounts strictly greater than zero.
	AmountPositive AmountPolicy = "positive"
	// AmountNonNegative also accepts zero.
	AmountNonNegative AmountPolicy = "non_negative"
)

// Valid reports whether p is a known policy.
func (p AmountPolicy) Valid() bool {
	return p == AmountPositive || p == AmountNonNegative
}

const (
	maxDescriptionLen = 200
	amountPlaces      = 2
	// maxAmountExponent bounds the decimal exponent accepted before any
	// arithmetic, so "1e20000000" never gets expanded.
	maxAmountExponent = 32
)

// maxAmount is the largest value the NUMERIC(14, 2) column holds.
var maxAmount = decimal.RequireFromString("999999999999.99")

// dateLayouts are tried in order when parsing a date string.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// Validator checks client payloads against the transaction field rules.
type Validator struct {
	policy   AmountPolicy
	validate *validator.Validate
	now      func() time.Time
}

// NewValidator returns a Validator using policy for amounts and now for
// defaulting a missing date.
func NewValidator(policy AmountPolicy, now func() time.Time) *Validator {
	if !policy.Valid() {
		policy = AmountPositive
	}

	if now == nil {
		now = time.Now
	}

	return &Validator{
		policy:   policy,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      now,
	}
}

// ValidateCreate checks a full payload and returns a normalized transaction
// owned by ownerID. All violations are collected before returning.
// Any owner or id carried by the payload is ignored.
func (v *Validator) ValidateCreate(p Payload, ownerID string) (*Transaction, error) {
	var violations []Violation

	tx := &Transaction{
		OwnerID:  ownerID,
		Category: DefaultCategory,
	}

	if raw, ok := p.value("amount"); !ok {
		violations = append(violations, Violation{"amount", "is required"})
	} else if amount, msg := v.amount(raw); msg != "" {
		violations = append(violations, Violation{"amount", msg})
	} else {
		tx.Amount = amount
	}

	if raw, ok := p.value("description"); !ok {
		violations = append(violations, Violation{"description", "is required"})
	} else if desc, msg := v.description(raw); msg != "" {
		violations = append(violations, Violation{"description", msg})
	} else {
		tx.Description = desc
	}

	if raw, ok := p.value("date"); !ok {
		tx.Date = v.now().UTC()
	} else if date, msg := parseDate(raw); msg != "" {
		violations = append(violations, Violation{"date", msg})
	} else {
		tx.Date = date
	}

	if raw, ok := p.value("type"); !ok {
		violations = append(violations, Violation{"type", "is required"})
	} else if typ, msg := v.txType(raw); msg != "" {
		violations = append(violations, Violation{"type", msg})
	} else {
		tx.Type = typ
	}

	if raw, ok := p.value("category"); ok {
		if cat, msg := category(raw); msg != "" {
			violations = append(violations, Violation{"category", msg})
		} else {
			tx.Category = cat
		}
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	return tx, nil
}

// ValidateUpdate checks a partial payload. Only supplied fields are validated
// and returned in the patch. A null or blank category resets it to the default.
func (v *Validator) ValidateUpdate(p Payload) (*Patch, error) {
	var (
		violations []Violation
		patch      Patch
	)

	if raw, ok := p.value("amount"); ok {
		if amount, msg := v.amount(raw); msg != "" {
			violations = append(violations, Violation{"amount", msg})
		} else {
			patch.Amount = &amount
		}
	}

	if raw, ok := p.value("description"); ok {
		if desc, msg := v.description(raw); msg != "" {
			violations = append(violations, Violation{"description", msg})
		} else {
			patch.Description = &desc
		}
	}

	if raw, ok := p.value("date"); ok {
		if date, msg := parseDate(raw); msg != "" {
			violations = append(violations, Violation{"date", msg})
		} else {
			patch.Date = &date
		}
	}

	if raw, ok := p.value("type"); ok {
		if typ, msg := v.txType(raw); msg != "" {
			violations = append(violations, Violation{"type", msg})
		} else {
			patch.Type = &typ
		}
	}

	if p.has("category") {
		cat := DefaultCategory

		if raw, ok := p.value("category"); ok {
			c, msg := category(raw)
			if msg != "" {
				violations = append(violations, Violation{"category", msg})
			}

			cat = c
		}

		patch.Category = &cat
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	return &patch, nil
}

func (v *Validator) amount(raw any) (decimal.Decimal, string) {
	d, err := toDecimal(raw)
	if err != nil {
		return decimal.Zero, "must be a number"
	}

	if d.IsZero() {
		d = decimal.Zero
	}

	tooLarge := "must be at most " + maxAmount.StringFixed(amountPlaces)

	switch exp := d.Exponent(); {
	case exp > maxAmountExponent:
		return decimal.Zero, tooLarge
	case exp < -maxAmountExponent:
		return decimal.Zero, fmt.Sprintf("must have at most %d decimal places", maxAmountExponent)
	}

	switch v.policy {
	case AmountNonNegative:
		if d.IsNegative() {
			return decimal.Zero, "must not be negative"
		}
	default:
		if !d.IsPositive() {
			return decimal.Zero, "must be greater than 0"
		}
	}

	rounded := d.Round(amountPlaces)
	if v.policy == AmountPositive && !rounded.IsPositive() {
		return decimal.Zero, "must be at least 0.01"
	}

	if rounded.Abs().GreaterThan(maxAmount) {
		return decimal.Zero, tooLarge
	}

	return rounded, ""
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch n := raw.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(n))
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case decimal.Decimal:
		return n, nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", raw)
	}
}

func (v *Validator) description(raw any) (string, string) {
	s, ok := raw.(string)
	if !ok {
		return "", "must be a string"
	}

	s = strings.TrimSpace(s)

	if err := v.validate.Var(s, fmt.Sprintf("min=1,max=%d", maxDescriptionLen)); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Tag() == "max" {
			return "", fmt.Sprintf("must be at most %d characters", maxDescriptionLen)
		}

		return "", "must not be empty"
	}

	return s, ""
}

func (v *Validator) txType(raw any) (Type, string) {
	s, ok := raw.(string)
	if !ok {
		return "", "must be a string"
	}

	if err := v.validate.Var(s, "oneof=income expense"); err != nil {
		return "", "must be one of income, expense"
	}

	return Type(s), ""
}

func parseDate(raw any) (time.Time, string) {
	switch d := raw.(type) {
	case time.Time:
		if d.IsZero() {
			return time.Time{}, "must be a valid date"
		}

		return d.UTC(), ""
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), ""
			}
		}

		return time.Time{}, "must be a valid date"
	default:
		return time.Time{}, "must be a date string"
	}
}

func category(raw any) (string, string) {
	s, ok := raw.(string)
	if !ok {
		return DefaultCategory, "must be a string"
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCategory, ""
	}

	return s, ""
}
