package importcsv

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ARIHANT218/Finance-Tracker/internal/auth"
	"github.com/ARIHANT218/Finance-Tracker/internal/http/respond"
	txHandler "github.com/ARIHANT218/Finance-Tracker/internal/http/transaction"
	"github.com/ARIHANT218/Finance-Tracker/internal/importer"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	importSvc *importer.Service
}

func NewHandler(importSvc *importer.Service) *Handler {
	return &Handler{importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
	r.Get("/profiles", h.profiles)
}

type importResponse struct {
	Profile      string               `json:"profile"`
	Charset      string               `json:"charset"`
	Imported     int                  `json:"imported"`
	Categorized  int                  `json:"categorized"`
	Transactions []txHandler.Response `json:"transactions"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.Message(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	report, err := h.importSvc.Import(r.Context(), auth.OwnerFromContext(r.Context()), file, r.FormValue("profile"))
	if err != nil {
		if errors.Is(err, importer.ErrUnknownFormat) || errors.Is(err, importer.ErrUnknownProfile) {
			respond.Message(w, http.StatusBadRequest, err.Error())
			return
		}

		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusCreated, importResponse{
		Profile:      report.Profile,
		Charset:      report.Charset,
		Imported:     len(report.Transactions),
		Categorized:  report.Categorized,
		Transactions: txHandler.NewResponseList(report.Transactions),
	})
}

func (h *Handler) profiles(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string][]string{"profiles": importer.Profiles()})
}
