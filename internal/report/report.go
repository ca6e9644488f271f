// Package report aggregates committed transactions into summaries and debt
// balances, and renders them for the terminal or as charts.
package report

import (
	"sort"
	"time"

	"github.com/mukisa/dukabook/internal/domain"
)

// Summary totals a set of transactions. Inflow counts money coming into the
// business (sales and debt repayments), outflow counts money leaving it.
// Debts recorded are tracked separately and do not move cash.
type Summary struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	Inflow   float64 `json:"inflow"`
	Outflow  float64 `json:"outflow"`
	Net      float64 `json:"net"`
	DebtsOut float64 `json:"debtsOut"`

	Count      int                `json:"count"`
	ByCategory map[string]float64 `json:"byCategory"`
}

// Summarize totals the given transactions. Callers pass a range-filtered
// slice; From/To are carried through for display only.
func Summarize(txs []domain.Transaction, from, to time.Time) Summary {
	s := Summary{From: from, To: to, ByCategory: make(map[string]float64)}
	for _, tx := range txs {
		s.Count++
		switch tx.Type {
		case domain.TypeIncome, domain.TypeDebtPayment:
			s.Inflow += tx.Amount
		case domain.TypeExpense:
			s.Outflow += tx.Amount
			s.ByCategory[tx.Category] += tx.Amount
		case domain.TypeDebt:
			s.DebtsOut += tx.Amount
		}
	}
	s.Net = s.Inflow - s.Outflow
	return s
}

// DebtBalance is what one counterparty still owes the business.
type DebtBalance struct {
	Counterparty string  `json:"counterparty"`
	Balance      float64 `json:"balance"`
}

// DebtBalances folds debts and repayments into per-counterparty balances.
// A DEBT adds to the balance, a DEBT_PAYMENT subtracts. Fully settled
// counterparties are dropped; overpayments show as negative balances.
func DebtBalances(txs []domain.Transaction) []DebtBalance {
	balances := make(map[string]float64)
	for _, tx := range txs {
		switch tx.Type {
		case domain.TypeDebt:
			balances[tx.Counterparty] += tx.Amount
		case domain.TypeDebtPayment:
			balances[tx.Counterparty] -= tx.Amount
		}
	}

	out := make([]DebtBalance, 0, len(balances))
	for party, balance := range balances {
		if balance == 0 {
			continue
		}
		out = append(out, DebtBalance{Counterparty: party, Balance: balance})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Balance != out[j].Balance {
			return out[i].Balance > out[j].Balance
		}
		return out[i].Counterparty < out[j].Counterparty
	})
	return out
}

// RangeWindow maps a query range onto a [from, to) window around now.
// "week" and "month" are calendar-relative, starting at midnight.
func RangeWindow(now time.Time, r domain.QueryRange) (from, to time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to = midnight.AddDate(0, 0, 1)

	switch r {
	case domain.RangeToday:
		from = midnight
	case domain.RangeWeek:
		from = midnight.AddDate(0, 0, -6)
	case domain.RangeMonth:
		from = midnight.AddDate(0, -1, 0)
	default:
		// No stated range reads as month-to-date.
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
	return from, to
}
