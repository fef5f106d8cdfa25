package transaction

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ARIHANT218/Finance-Tracker/internal/auth"
	"github.com/ARIHANT218/Finance-Tracker/internal/http/respond"
	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

// decodePayload reads a JSON object body, keeping numbers as json.Number.
func decodePayload(w http.ResponseWriter, r *http.Request) (transaction.Payload, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var p transaction.Payload
	if err := dec.Decode(&p); err != nil {
		if tooLarge(w, err) {
			return nil, false
		}

		if errors.Is(err, io.EOF) {
			respond.Message(w, http.StatusBadRequest, "request body is required")
			return nil, false
		}

		respond.Message(w, http.StatusBadRequest, "invalid request body")

		return nil, false
	}

	if p == nil {
		respond.Message(w, http.StatusBadRequest, "request body must be a JSON object")
		return nil, false
	}

	// The body must hold exactly one value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if !tooLarge(w, err) {
			respond.Message(w, http.StatusBadRequest, "request body must contain a single JSON object")
		}

		return nil, false
	}

	return p, true
}

// tooLarge answers 413 when err comes from the body size limit.
func tooLarge(w http.ResponseWriter, err error) bool {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		return false
	}

	respond.Message(w, http.StatusRequestEntityTooLarge, "request body too large")

	return true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	tx, err := h.svc.Create(r.Context(), auth.OwnerFromContext(r.Context()), payload)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, NewResponse(tx))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter, err := transaction.ParseListFilter(q.Get("type"), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	txs, err := h.svc.List(r.Context(), auth.OwnerFromContext(r.Context()), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, NewResponseList(txs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.svc.Get(r.Context(), auth.OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, NewResponse(tx))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	tx, err := h.svc.Update(r.Context(), auth.OwnerFromContext(r.Context()), chi.URLParam(r, "id"), payload)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, NewResponse(tx))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Delete(r.Context(), auth.OwnerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
