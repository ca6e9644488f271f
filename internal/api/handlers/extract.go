// Package handlers implements the HTTP endpoints of the ledger service.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mukisa/dukabook/internal/api/middleware"
	"github.com/mukisa/dukabook/internal/domain"
	"github.com/mukisa/dukabook/internal/extractor"
	"github.com/mukisa/dukabook/internal/observability"
)

// ExtractHandler turns free text into a draft transaction or query.
type ExtractHandler struct {
	extractor *extractor.Extractor
	metrics   *observability.Metrics
	log       zerolog.Logger
}

func NewExtractHandler(ex *extractor.Extractor, metrics *observability.Metrics, log zerolog.Logger) *ExtractHandler {
	return &ExtractHandler{extractor: ex, metrics: metrics, log: log}
}

// Extract handles POST /api/extract.
// The response is always 200 with a ParseResult; junk input reads as UNKNOWN.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text        string `json:"text"`
		DefaultType string `json:"default_type,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var res domain.ParseResult
	if req.DefaultType != "" {
		typ, err := domain.ParseTransactionType(req.DefaultType)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Unknown default_type")
			return
		}
		res = h.extractor.ExtractWithDefaultType(r.Context(), req.Text, typ)
	} else {
		res = h.extractor.Extract(r.Context(), req.Text)
	}

	h.metrics.IncrExtraction(string(res.Intent))
	h.log.Debug().
		Str("intent", string(res.Intent)).
		Bool("low_confidence", res.LowConfidence).
		Msg("extracted text")

	middleware.WriteJSON(w, http.StatusOK, res)
}
