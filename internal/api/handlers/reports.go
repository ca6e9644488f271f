package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mukisa/dukabook/internal/api/middleware"
	"github.com/mukisa/dukabook/internal/domain"
	"github.com/mukisa/dukabook/internal/report"
	"github.com/mukisa/dukabook/internal/store"
)

// ReportsHandler answers summary and debt questions over the ledger.
type ReportsHandler struct {
	store store.Store
	log   zerolog.Logger
}

func NewReportsHandler(st store.Store, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{store: st, log: log}
}

// Summary handles GET /api/reports/summary.
// An optional ?range=today|week|month sets the window; without it the report
// covers the month to date.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	var queryRange domain.QueryRange
	if rangeParam := r.URL.Query().Get("range"); rangeParam != "" {
		var ok bool
		queryRange, ok = parseQueryRange(rangeParam)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, "Unknown range, want today, week or month")
			return
		}
	}

	from, to := report.RangeWindow(time.Now(), queryRange)
	txs, err := h.store.ListByUserAndRange(r.Context(), claims.Sub, from, to)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load transactions for summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build summary")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, report.Summarize(txs, from, to))
}

// Debts handles GET /api/reports/debts.
// Balances fold the whole ledger, not a window; a debt from last year is
// still owed.
func (h *ReportsHandler) Debts(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	txs, err := h.store.ListByUser(r.Context(), claims.Sub)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load transactions for debts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build debt balances")
		return
	}

	balances := report.DebtBalances(txs)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"debts": balances,
		"count": len(balances),
	})
}
