package export

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ARIHANT218/Finance-Tracker/internal/auth"
	"github.com/ARIHANT218/Finance-Tracker/internal/export"
	"github.com/ARIHANT218/Finance-Tracker/internal/http/respond"
	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.download)
}

// download buffers the CSV so that a storage failure can still be answered
// with a JSON error instead of a truncated file.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter, err := transaction.ParseListFilter(q.Get("type"), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var buf bytes.Buffer

	sum, err := h.svc.Export(r.Context(), auth.OwnerFromContext(r.Context()), filter, &buf)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(time.Now())))
	w.Header().Set("X-Transaction-Count", strconv.Itoa(sum.Count))
	w.Header().Set("X-Total-Income", sum.Income.StringFixed(2))
	w.Header().Set("X-Total-Expense", sum.Expense.StringFixed(2))
	w.WriteHeader(http.StatusOK)

	_, _ = buf.WriteTo(w)
}
