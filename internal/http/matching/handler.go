package matching

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ARIHANT218/Finance-Tracker/internal/auth"
	"github.com/ARIHANT218/Finance-Tracker/internal/http/respond"
	"github.com/ARIHANT218/Finance-Tracker/internal/matching"
	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/suggest", h.suggest)
}

type suggestResponse struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Matched     bool   `json:"matched"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	desc := strings.TrimSpace(r.URL.Query().Get("description"))
	if desc == "" {
		respond.Message(w, http.StatusBadRequest, "description query parameter is required")
		return
	}

	category, err := h.svc.Suggest(r.Context(), auth.OwnerFromContext(r.Context()), desc)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := suggestResponse{Description: desc, Category: category, Matched: category != ""}
	if !resp.Matched {
		resp.Category = transaction.DefaultCategory
	}

	respond.JSON(w, http.StatusOK, resp)
}
