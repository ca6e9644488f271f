package domain

import (
	"fmt"
	"strings"
	"time"
)

// TransactionType is the closed set of ledger entry kinds.
type TransactionType string

const (
	TypeIncome      TransactionType = "INCOME"
	TypeExpense     TransactionType = "EXPENSE"
	TypeDebt        TransactionType = "DEBT"
	TypeDebtPayment TransactionType = "DEBT_PAYMENT"
)

// ParseTransactionType converts a string (e.g. from a model response or an API
// request) into a TransactionType. Unknown values are rejected rather than
// defaulted so a bad model output never silently becomes a wrong entry.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeIncome:
		return TypeIncome, nil
	case TypeExpense:
		return TypeExpense, nil
	case TypeDebt:
		return TypeDebt, nil
	case TypeDebtPayment:
		return TypeDebtPayment, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// DefaultCategory is used when no category could be inferred from the input.
const DefaultCategory = "General"

// Transaction is one committed ledger entry. It is only ever built from a
// confirmed ParseResult plus a caller-assigned id and date; the extractor
// itself never creates one.
type Transaction struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Type         TransactionType `json:"type"`
	Amount       float64         `json:"amount"`
	Category     string          `json:"category"`
	Counterparty string          `json:"counterparty,omitempty"`
	Note         string          `json:"note,omitempty"`
	Date         time.Time       `json:"date"`
}

// Validate checks the invariants a committed transaction must hold:
// a known type, a non-negative amount, and a counterparty on debt entries.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transaction: missing id")
	}
	if _, err := ParseTransactionType(string(t.Type)); err != nil {
		return fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	if t.Amount < 0 {
		return fmt.Errorf("transaction %s: negative amount %.2f", t.ID, t.Amount)
	}
	if (t.Type == TypeDebt || t.Type == TypeDebtPayment) && strings.TrimSpace(t.Counterparty) == "" {
		return fmt.Errorf("transaction %s: %s requires a counterparty", t.ID, t.Type)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction %s: missing date", t.ID)
	}
	return nil
}
