// Package respond writes JSON bodies and maps domain errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

type violationBody struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type rowBody struct {
	Row        int             `json:"row"`
	Violations []violationBody `json:"violations"`
}

type errorBody struct {
	Error      string          `json:"error"`
	Violations []violationBody `json:"violations,omitempty"`
	Rows       []rowBody       `json:"rows,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Message writes {"error": msg} with status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

func violations(vs []transaction.Violation) []violationBody {
	out := make([]violationBody, len(vs))
	for i, v := range vs {
		out[i] = violationBody{Field: v.Field, Message: v.Message}
	}

	return out
}

// Error maps err onto a status and body. Anything unrecognised is logged and
// answered with a bare 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *transaction.ValidationError
		ierr *transaction.ImportError
	)

	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Violations: violations(verr.Violations)})
	case errors.As(err, &ierr):
		rows := make([]rowBody, len(ierr.Rows))
		for i, row := range ierr.Rows {
			rows[i] = rowBody{Row: row.Row, Violations: violations(row.Violations)}
		}

		JSON(w, http.StatusBadRequest, errorBody{Error: ierr.Error(), Rows: rows})
	case errors.Is(err, transaction.ErrInvalidID):
		Message(w, http.StatusBadRequest, "invalid id")
	case errors.Is(err, transaction.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", "Bearer")
		Message(w, http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, transaction.ErrNotFound):
		Message(w, http.StatusNotFound, "transaction not found")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		Message(w, http.StatusInternalServerError, "internal error")
	}
}
