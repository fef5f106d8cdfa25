package transaction

import (
	"strings"
	"time"
)

// ParseListFilter builds a filter from query string values. Empty values are
// ignored. A date-only end_date covers the whole day.
func ParseListFilter(typ, startDate, endDate string) (ListFilter, error) {
	var (
		filter     ListFilter
		violations []Violation
	)

	if typ = strings.TrimSpace(typ); typ != "" {
		if t := Type(typ); t.Valid() {
			filter.Type = &t
		} else {
			violations = append(violations, Violation{"type", "must be one of income, expense"})
		}
	}

	if startDate = strings.TrimSpace(startDate); startDate != "" {
		if t, msg := parseDate(startDate); msg != "" {
			violations = append(violations, Violation{"start_date", msg})
		} else {
			filter.StartDate = &t
		}
	}

	if endDate = strings.TrimSpace(endDate); endDate != "" {
		if t, msg := parseDate(endDate); msg != "" {
			violations = append(violations, Violation{"end_date", msg})
		} else {
			if _, err := time.Parse(time.DateOnly, endDate); err == nil {
				t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
			}

			filter.EndDate = &t
		}
	}

	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		violations = append(violations, Violation{"end_date", "must not be before start_date"})
	}

	if len(violations) > 0 {
		return ListFilter{}, &ValidationError{Violations: violations}
	}

	return filter, nil
}
