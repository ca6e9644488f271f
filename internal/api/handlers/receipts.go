package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mukisa/dukabook/internal/api/middleware"
	"github.com/mukisa/dukabook/internal/jobs"
	"github.com/mukisa/dukabook/internal/receipts"
)

// maxReceiptBytes caps uploads; phone photos of till slips fit comfortably.
const maxReceiptBytes = 10 << 20

// ReceiptsHandler stores receipt images and queues scan jobs for them.
type ReceiptsHandler struct {
	storage   receipts.Storage
	publisher jobs.Publisher
	log       zerolog.Logger
}

func NewReceiptsHandler(storage receipts.Storage, publisher jobs.Publisher, log zerolog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{storage: storage, publisher: publisher, log: log}
}

// Upload handles POST /api/receipts/upload.
// The body is the raw image; Content-Type names its format.
func (h *ReceiptsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") && contentType != "application/pdf" {
		middleware.WriteError(w, http.StatusUnsupportedMediaType, "Receipt must be an image or PDF")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxReceiptBytes+1))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}
	if len(data) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Empty upload")
		return
	}
	if len(data) > maxReceiptBytes {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Receipt too large")
		return
	}

	receiptID := uuid.NewString()
	gcsURI, err := h.storage.Upload(r.Context(), receiptID, contentType, data)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to store receipt")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store receipt")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{
		"receipt_id": receiptID,
		"gcs_uri":    gcsURI,
		"mime_type":  contentType,
	})
}

// Scan handles POST /api/receipts/scan.
// It queues a scan job and returns its ID; the draft transaction appears on
// the job once the scan finishes.
func (h *ReceiptsHandler) Scan(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	var req struct {
		ReceiptID string `json:"receipt_id"`
		GCSURI    string `json:"gcs_uri"`
		MimeType  string `json:"mime_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.GCSURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "gcs_uri is required")
		return
	}
	if req.MimeType == "" {
		req.MimeType = "image/jpeg"
	}

	job := &jobs.ScanReceiptJob{
		UserID:    claims.Sub,
		ReceiptID: req.ReceiptID,
		GCSURI:    req.GCSURI,
		MimeType:  req.MimeType,
	}
	if err := h.publisher.PublishScanReceipt(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to queue scan job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to queue scan job")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}
