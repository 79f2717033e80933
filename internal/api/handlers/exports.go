package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/mmynk/nekolators/internal/api/dto"
	"github.com/mmynk/nekolators/internal/export"
	"github.com/mmynk/nekolators/internal/service"
	"github.com/mmynk/nekolators/internal/storage"
)

// ExportsHandler serves calculations as spreadsheets.
type ExportsHandler struct {
	*Base
}

// NewExportsHandler creates an exports handler.
func NewExportsHandler(store storage.Store) *ExportsHandler {
	return &ExportsHandler{Base: NewBase(store, "")}
}

// Calculation handles GET /api/calculations/{id}/export.xlsx.
func (h *ExportsHandler) Calculation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	calc, err := h.store.GetCalculation(r.Context(), id)
	if err != nil {
		h.storeError(w, id, err)
		return
	}

	f, err := export.Calculation(calc)
	h.send(w, calc.Title, f, err)
}

// ExpertCalculation handles GET /api/expert/{id}/export.xlsx.
func (h *ExportsHandler) ExpertCalculation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	calc, err := h.store.GetExpertCalculation(r.Context(), id)
	if err != nil {
		h.storeError(w, id, err)
		return
	}

	f, err := export.ExpertCalculation(calc, service.ExpertTotals(calc))
	h.send(w, calc.Title, f, err)
}

func (h *ExportsHandler) storeError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("calculation"))
		return
	}
	slog.Error("Failed to load calculation for export", "calculation_id", id, "error", err)
	h.WriteError(w, http.StatusInternalServerError, dto.InternalError(err.Error()))
}

func (h *ExportsHandler) send(w http.ResponseWriter, title string, f *excelize.File, err error) {
	if err != nil {
		slog.Error("Failed to build workbook", "error", err)
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError(err.Error()))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(title, time.Now())+`"`)
	if err := export.Write(w, f); err != nil {
		slog.Error("Failed to write workbook", "error", err)
	}
}
