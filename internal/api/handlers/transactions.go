package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mukisa/dukabook/internal/api/middleware"
	"github.com/mukisa/dukabook/internal/domain"
	"github.com/mukisa/dukabook/internal/observability"
	"github.com/mukisa/dukabook/internal/report"
	"github.com/mukisa/dukabook/internal/store"
)

// TransactionsHandler commits confirmed transactions and lists the ledger.
type TransactionsHandler struct {
	store   store.Store
	metrics *observability.Metrics
	log     zerolog.Logger
}

func NewTransactionsHandler(st store.Store, metrics *observability.Metrics, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: st, metrics: metrics, log: log}
}

// commitRequest is a confirmed draft. The client sends back the fields of the
// ParseResult it got from /api/extract, corrected as needed.
type commitRequest struct {
	Type         string   `json:"type"`
	Amount       *float64 `json:"amount"`
	Category     string   `json:"category,omitempty"`
	Counterparty string   `json:"counterparty,omitempty"`
	Note         string   `json:"note,omitempty"`
	Date         string   `json:"date,omitempty"` // RFC 3339, defaults to now
}

// Commit handles POST /api/transactions.
// A draft without a positive amount is never committed; the client must fill
// it in first.
func (h *TransactionsHandler) Commit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	typ, err := domain.ParseTransactionType(req.Type)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Unknown transaction type")
		return
	}
	if req.Amount == nil || *req.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "A positive amount is required to commit")
		return
	}

	date := time.Now()
	if req.Date != "" {
		date, err = time.Parse(time.RFC3339, req.Date)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid date, want RFC 3339")
			return
		}
	}

	category := req.Category
	if category == "" {
		category = domain.DefaultCategory
	}

	tx := domain.Transaction{
		ID:           uuid.NewString(),
		UserID:       claims.Sub,
		Type:         typ,
		Amount:       *req.Amount,
		Category:     category,
		Counterparty: req.Counterparty,
		Note:         req.Note,
		Date:         date,
	}
	if err := tx.Validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Insert(r.Context(), &tx); err != nil {
		h.log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Failed to commit transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to commit transaction")
		return
	}

	h.metrics.IncrCommit(string(tx.Type))
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// List handles GET /api/transactions.
// An optional ?range=today|week|month narrows the window; without it the
// whole ledger is returned.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	var (
		txs []domain.Transaction
		err error
	)
	if rangeParam := r.URL.Query().Get("range"); rangeParam != "" {
		queryRange, ok := parseQueryRange(rangeParam)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, "Unknown range, want today, week or month")
			return
		}
		from, to := report.RangeWindow(time.Now(), queryRange)
		txs, err = h.store.ListByUserAndRange(r.Context(), claims.Sub, from, to)
	} else {
		txs, err = h.store.ListByUser(r.Context(), claims.Sub)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

func parseQueryRange(s string) (domain.QueryRange, bool) {
	switch domain.QueryRange(s) {
	case domain.RangeToday, domain.RangeWeek, domain.RangeMonth:
		return domain.QueryRange(s), true
	}
	return "", false
}
