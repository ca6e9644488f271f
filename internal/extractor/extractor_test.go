package extractor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mukisa/dukabook/internal/domain"
)

// stubBackend stands in for a remote inference service.
type stubBackend struct {
	res domain.ParseResult
	err error
}

func (s *stubBackend) Infer(ctx context.Context, text string) (domain.ParseResult, error) {
	return s.res, s.err
}

func TestExtract_BackendFailureDegradesToUnknown(t *testing.T) {
	e := New(Options{Backend: &stubBackend{err: errors.New("connection refused")}})

	got := e.Extract(context.Background(), "Sold bread 5000")
	if got.Intent != domain.IntentUnknown {
		t.Fatalf("Intent = %v, want UNKNOWN on backend failure", got.Intent)
	}
	if got.RawText != "Sold bread 5000" {
		t.Errorf("RawText = %q, want original input", got.RawText)
	}
}

func TestExtract_BackendSchemaViolationsDegrade(t *testing.T) {
	tests := []struct {
		name string
		res  domain.ParseResult
		want domain.Intent
	}{
		{
			name: "invalid intent",
			res:  domain.ParseResult{Intent: "MAYBE"},
			want: domain.IntentUnknown,
		},
		{
			name: "invalid type on a record",
			res:  domain.ParseResult{Intent: domain.IntentRecord, Type: "TRANSFER"},
			want: domain.IntentUnknown,
		},
		{
			name: "junk query range cleared but query kept",
			res:  domain.ParseResult{Intent: domain.IntentQuery, QueryRange: "fortnight"},
			want: domain.IntentQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(Options{Backend: &stubBackend{res: tt.res}})
			got := e.Extract(context.Background(), "whatever the model saw")
			if got.Intent != tt.want {
				t.Fatalf("Intent = %v, want %v", got.Intent, tt.want)
			}
			if got.Intent == domain.IntentQuery && got.QueryRange != "" {
				t.Errorf("QueryRange = %q, want cleared", got.QueryRange)
			}
		})
	}
}

func TestExtract_BackendNegativeAmountDropped(t *testing.T) {
	amount := -300.0
	e := New(Options{Backend: &stubBackend{res: domain.ParseResult{
		Intent: domain.IntentRecord,
		Type:   domain.TypeExpense,
		Amount: &amount,
	}}})

	got := e.Extract(context.Background(), "refund -300")
	if got.Intent != domain.IntentRecord {
		t.Fatalf("Intent = %v, want RECORD", got.Intent)
	}
	if got.Amount != nil {
		t.Errorf("Amount = %v, want nil (negative rejected)", *got.Amount)
	}
}

func TestFromReceiptFields(t *testing.T) {
	e := New(Options{})

	got := e.FromReceiptFields(domain.ReceiptFields{
		Merchant: "Shell Kampala",
		Amount:   "45,000",
		Currency: "UGX",
		Category: "Fuel",
		RawText:  "SHELL KAMPALA ... TOTAL UGX 45,000",
	}, domain.TypeExpense)

	if got.Intent != domain.IntentRecord {
		t.Fatalf("Intent = %v, want RECORD", got.Intent)
	}
	if got.Type != domain.TypeExpense {
		t.Errorf("Type = %v, want EXPENSE", got.Type)
	}
	if got.Amount == nil || *got.Amount != 45000 {
		t.Errorf("Amount = %v, want 45000", got.Amount)
	}
	if got.Category != "Fuel" {
		t.Errorf("Category = %q, want Fuel", got.Category)
	}
	if got.Counterparty != "Shell Kampala" {
		t.Errorf("Counterparty = %q, want merchant name", got.Counterparty)
	}
}

func TestFromReceiptFields_MissingAmountFlagged(t *testing.T) {
	e := New(Options{})

	got := e.FromReceiptFields(domain.ReceiptFields{Merchant: "Kiosk"}, domain.TypeExpense)
	if got.Amount != nil {
		t.Errorf("Amount = %v, want nil", *got.Amount)
	}
	if !got.LowConfidence {
		t.Error("expected LowConfidence when the receipt total is unreadable")
	}
	if got.Counterparty != "Kiosk" {
		t.Errorf("Counterparty = %q, want Kiosk", got.Counterparty)
	}
}

// Every confirmed RECORD must be promotable into a transaction that passes
// domain validation with just an id and a date added.
func TestRecordResultsRoundTrip(t *testing.T) {
	e := New(Options{})

	inputs := []string{
		"Musa paid back 5000",
		"Musa owes me 15000",
		"Sold bread 5000",
		"Paid rent 300,000",
		"Bought fuel from John 20000",
	}

	for _, text := range inputs {
		t.Run(text, func(t *testing.T) {
			res := e.Extract(context.Background(), text)
			if res.Intent != domain.IntentRecord {
				t.Fatalf("Intent = %v, want RECORD", res.Intent)
			}

			tx := res.Transaction(uuid.NewString(), "owner-1", time.Now())
			if err := tx.Validate(); err != nil {
				t.Errorf("promoted transaction invalid: %v", err)
			}
			if tx.Note != text {
				t.Errorf("Note = %q, want original text", tx.Note)
			}
			if tx.Category == "" {
				t.Error("Category must never be empty after promotion")
			}
		})
	}
}
