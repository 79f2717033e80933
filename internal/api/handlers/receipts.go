package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmynk/nekolators/internal/api/dto"
	"github.com/mmynk/nekolators/internal/metrics"
	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/receipt"
	"github.com/mmynk/nekolators/internal/shortlink"
	"github.com/mmynk/nekolators/internal/storage"
)

// Receipt sources, used as metric labels.
const (
	sourceAPI     = "receipt_api"
	sourceProcess = "process_receipt"
	sourceUpload  = "upload"
)

// DefaultMaxUpload limits request bodies and uploaded images to 10 MiB.
const DefaultMaxUpload = 10 << 20

const successMessage = "Receipt processed and calculation created successfully"

// ReceiptsHandler turns receipt data into saved expert calculations.
type ReceiptsHandler struct {
	*Base
	links     *shortlink.Service
	extractor receipt.Extractor
	maxUpload int64
	now       func() time.Time
}

// NewReceiptsHandler creates a receipts handler. extractor may be nil, in
// which case image uploads are refused.
func NewReceiptsHandler(store storage.Store, links *shortlink.Service, extractor receipt.Extractor, baseURL string, maxUpload int64) *ReceiptsHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &ReceiptsHandler{
		Base:      NewBase(store, baseURL),
		links:     links,
		extractor: extractor,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

// ReceiptAPI handles POST /functions/v1/receipt-api: lenient ingest with a
// short link.
func (h *ReceiptsHandler) ReceiptAPI(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readBody(w, r, sourceAPI)
	if !ok {
		return
	}
	h.ingest(w, r, sourceAPI, data, receipt.Lenient)
}

// ProcessReceipt handles POST /functions/v1/process-receipt: strict ingest
// without a short link.
func (h *ReceiptsHandler) ProcessReceipt(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readBody(w, r, sourceProcess)
	if !ok {
		return
	}
	h.ingest(w, r, sourceProcess, data, receipt.Strict)
}

// Upload handles POST /api/receipts/upload. The multipart field "image" is
// sent to the extractor and the resulting receipt JSON is ingested like
// ReceiptAPI.
func (h *ReceiptsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		h.fail(w, sourceUpload, http.StatusServiceUnavailable, dto.NewAPIError("Receipt extraction is not configured", ""))
		return
	}

	if r.ContentLength > h.maxUpload {
		h.fail(w, sourceUpload, http.StatusRequestEntityTooLarge, dto.BadRequestError("Invalid upload", "image is too large"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.fail(w, sourceUpload, status, dto.BadRequestError("Invalid upload", err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		h.fail(w, sourceUpload, http.StatusBadRequest, dto.BadRequestError("Missing required fields", "image file is required"))
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		h.fail(w, sourceUpload, http.StatusBadRequest, dto.BadRequestError("Invalid file type", "only image files are accepted"))
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, sourceUpload, http.StatusBadRequest, dto.BadRequestError("Invalid upload", err.Error()))
		return
	}

	data, err := h.extractor.Extract(r.Context(), receipt.Image{
		Filename: header.Filename,
		MIMEType: mimeType,
		Data:     imageData,
	})
	if err != nil {
		slog.Error("Receipt extraction failed", "filename", header.Filename, "error", err)
		h.fail(w, sourceUpload, http.StatusBadGateway, dto.NewAPIError("Failed to extract receipt", err.Error()))
		return
	}

	h.ingest(w, r, sourceUpload, data, receipt.Lenient)
}

func (h *ReceiptsHandler) readBody(w http.ResponseWriter, r *http.Request, source string) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUpload))
	if err != nil {
		h.fail(w, source, http.StatusBadRequest, dto.BadRequestError("Invalid request body", err.Error()))
		return nil, false
	}
	return data, true
}

// ingest validates and saves receipt JSON. Lenient receipts also get a short
// link; failing to create one does not fail the request.
func (h *ReceiptsHandler) ingest(w http.ResponseWriter, r *http.Request, source string, data []byte, mode receipt.Mode) {
	rec, err := receipt.Parse(data)
	if err == nil {
		var calc *models.ExpertCalculation
		calc, err = receipt.Normalize(rec, mode, h.now())
		if err == nil {
			h.save(w, r, source, calc, mode)
			return
		}
	}

	var verr *receipt.ValidationError
	if errors.As(err, &verr) {
		slog.Warn("Receipt rejected", "source", source, "error", err)
		msg := "Missing required fields"
		if verr.TooLarge {
			msg = "Too many items"
		}
		h.fail(w, source, http.StatusBadRequest, dto.BadRequestError(msg, verr.Details))
		return
	}
	slog.Error("Receipt processing failed", "source", source, "error", err)
	h.fail(w, source, http.StatusInternalServerError, dto.InternalError(err.Error()))
}

func (h *ReceiptsHandler) save(w http.ResponseWriter, r *http.Request, source string, calc *models.ExpertCalculation, mode receipt.Mode) {
	ctx := r.Context()
	if err := h.store.CreateExpertCalculation(ctx, calc); err != nil {
		slog.Error("Failed to save receipt calculation", "source", source, "error", err)
		h.fail(w, source, http.StatusInternalServerError, dto.NewAPIError("Failed to save calculation", err.Error()))
		return
	}
	metrics.CalculationsSaved.WithLabelValues(string(models.CalculationTypeExpert), "create").Inc()
	metrics.ReceiptsProcessed.WithLabelValues(source, "ok").Inc()
	slog.Info("Receipt saved", "source", source, "calculation_id", calc.ID, "items", len(calc.Items))

	base := h.BaseURL(r)
	resp := dto.ReceiptResponse{
		Success:       true,
		CalculationID: calc.ID,
		URL:           base + "/expert/" + calc.ID,
		EditURL:       base + "/expert/" + calc.ID + "/edit",
		Message:       successMessage,
	}

	if mode == receipt.Lenient {
		if code := h.shortCode(ctx, calc.ID); code != "" {
			resp.ShortCode = &code
			resp.URL = base + "/s/" + code
		}
		resp.Data = &dto.ReceiptData{
			ItemsCount:   len(calc.Items),
			PersonsCount: len(calc.Persons),
			Subtotal:     calc.Subtotal,
			Discount:     calc.Discount,
			Tax:          calc.Tax,
			FinalTotal:   calc.FinalTotal,
		}
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *ReceiptsHandler) shortCode(ctx context.Context, calcID string) string {
	link, err := h.links.Create(ctx, models.CalculationTypeExpert, calcID)
	if err != nil {
		slog.Warn("Failed to create short link", "calculation_id", calcID, "error", err)
		return ""
	}
	return link.Code
}

func (h *ReceiptsHandler) fail(w http.ResponseWriter, source string, status int, err dto.APIError) {
	result := "error"
	if status < http.StatusInternalServerError {
		result = "invalid"
	}
	metrics.ReceiptsProcessed.WithLabelValues(source, result).Inc()
	h.WriteError(w, status, err)
}
