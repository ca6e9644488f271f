package extractor

import (
	"context"
	"testing"

	"github.com/mukisa/dukabook/internal/domain"
)

func float64Ptr(v float64) *float64 { return &v }

func TestExtract_RecordClassification(t *testing.T) {
	e := New(Options{})

	tests := []struct {
		name         string
		text         string
		wantType     domain.TransactionType
		wantAmount   *float64
		wantCategory string
		wantParty    string
	}{
		{
			name:       "repayment with named party",
			text:       "Musa paid back 5000",
			wantType:   domain.TypeDebtPayment,
			wantAmount: float64Ptr(5000),
			wantParty:  "Musa",
		},
		{
			name:       "settled phrasing",
			text:       "Akello settled 12000 today",
			wantType:   domain.TypeDebtPayment,
			wantAmount: float64Ptr(12000),
			wantParty:  "Akello",
		},
		{
			name:       "owes with named party",
			text:       "Musa owes me 15000",
			wantType:   domain.TypeDebt,
			wantAmount: float64Ptr(15000),
			wantParty:  "Musa",
		},
		{
			name:       "goods on credit",
			text:       "Gave Sarah sugar on credit 8000",
			wantType:   domain.TypeDebt,
			wantAmount: float64Ptr(8000),
			wantParty:  "Sarah",
		},
		{
			name:         "sale",
			text:         "Sold bread 5000",
			wantType:     domain.TypeIncome,
			wantAmount:   float64Ptr(5000),
			wantCategory: "Bread",
		},
		{
			name:         "expense with keyword category",
			text:         "Paid rent 300000",
			wantType:     domain.TypeExpense,
			wantAmount:   float64Ptr(300000),
			wantCategory: "Rent",
		},
		{
			name:         "thousands separator parses identically",
			text:         "Paid rent 300,000",
			wantType:     domain.TypeExpense,
			wantAmount:   float64Ptr(300000),
			wantCategory: "Rent",
		},
		{
			name:         "k shorthand",
			text:         "Bought fuel 50k",
			wantType:     domain.TypeExpense,
			wantAmount:   float64Ptr(50000),
			wantCategory: "Fuel",
		},
		{
			name:         "expense with named party",
			text:         "Bought fuel from John 20000",
			wantType:     domain.TypeExpense,
			wantAmount:   float64Ptr(20000),
			wantCategory: "Fuel",
			wantParty:    "John",
		},
		{
			name:       "got paid is income not expense",
			text:       "Got paid 70000 for catering",
			wantType:   domain.TypeIncome,
			wantAmount: float64Ptr(70000),
			// "for" is filler, so the label comes from the work itself
			wantCategory: "Catering",
		},
		{
			name:       "record verb beats temporal query shape",
			text:       "Paid school expenses 20000 today",
			wantType:   domain.TypeExpense,
			wantAmount: float64Ptr(20000),
		},
		{
			name:         "spent is expense",
			text:         "Spent 4500 on airtime",
			wantType:     domain.TypeExpense,
			wantAmount:   float64Ptr(4500),
			wantCategory: "Airtime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(context.Background(), tt.text)

			if got.Intent != domain.IntentRecord {
				t.Fatalf("Extract(%q).Intent = %v, want RECORD", tt.text, got.Intent)
			}
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
			if tt.wantAmount == nil {
				if got.Amount != nil {
					t.Errorf("Amount = %v, want nil", *got.Amount)
				}
			} else if got.Amount == nil || *got.Amount != *tt.wantAmount {
				t.Errorf("Amount = %v, want %v", got.Amount, *tt.wantAmount)
			}
			if tt.wantCategory != "" && got.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", got.Category, tt.wantCategory)
			}
			if got.Counterparty != tt.wantParty {
				t.Errorf("Counterparty = %q, want %q", got.Counterparty, tt.wantParty)
			}
			if got.RawText != tt.text {
				t.Errorf("RawText = %q, want %q", got.RawText, tt.text)
			}
		})
	}
}

func TestExtract_Precedence(t *testing.T) {
	e := New(Options{})

	// "paid" and "owes" can share a sentence; repayment outranks owing
	// outranks plain outflow, first match wins.
	got := e.Extract(context.Background(), "Musa paid back the 5000 he owes")
	if got.Type != domain.TypeDebtPayment {
		t.Errorf("repayment phrase should outrank owing phrase, got %v", got.Type)
	}

	got = e.Extract(context.Background(), "Musa owes me 15000 for the paint I paid for")
	if got.Type != domain.TypeDebt {
		t.Errorf("owing phrase should outrank outflow verb, got %v", got.Type)
	}

	// Outflow outranks inflow when a sentence carries both verbs.
	got = e.Extract(context.Background(), "Sold bread and paid transport 2000")
	if got.Type != domain.TypeExpense {
		t.Errorf("outflow verb should outrank inflow verb, got %v", got.Type)
	}

	// The "got paid" bigram is the one inflow shape checked ahead of outflow.
	got = e.Extract(context.Background(), "Got paid 70000")
	if got.Type != domain.TypeIncome {
		t.Errorf("got-paid bigram should stay income, got %v", got.Type)
	}
}

func TestExtract_Query(t *testing.T) {
	e := New(Options{})

	tests := []struct {
		text      string
		wantRange domain.QueryRange
	}{
		{"How much today", domain.RangeToday},
		{"Show this week's sales", domain.RangeWeek},
		{"show expenses this month", domain.RangeMonth},
		{"How much did I make in the past 7 days", domain.RangeWeek},
		{"what did I sell in the last 30 days", domain.RangeMonth},
		{"this week's expenses", domain.RangeWeek},
		{"today's sales", domain.RangeToday},
		{"Show my sales", ""}, // query-shaped, no recognizable window
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := e.Extract(context.Background(), tt.text)
			if got.Intent != domain.IntentQuery {
				t.Fatalf("Extract(%q).Intent = %v, want QUERY", tt.text, got.Intent)
			}
			if got.QueryRange != tt.wantRange {
				t.Errorf("QueryRange = %q, want %q", got.QueryRange, tt.wantRange)
			}
			if got.Amount != nil || got.Type != "" || got.Counterparty != "" {
				t.Errorf("query result carries record fields: %+v", got)
			}
		})
	}
}

func TestExtract_Unknown(t *testing.T) {
	e := New(Options{})

	for _, text := range []string{
		"asdf qwer",
		"",
		"   ",
		"5000",           // bare number, no context
		"-5000 mistake",  // negative is never an amount
		"the weather is nice",
	} {
		t.Run(text, func(t *testing.T) {
			got := e.Extract(context.Background(), text)
			if got.Intent != domain.IntentUnknown {
				t.Fatalf("Extract(%q).Intent = %v, want UNKNOWN", text, got.Intent)
			}
			if got.RawText != text {
				t.Errorf("RawText = %q, want %q", got.RawText, text)
			}
			if got.Amount != nil || got.Type != "" || got.Category != "" || got.Counterparty != "" {
				t.Errorf("unknown result carries fields: %+v", got)
			}
		})
	}
}

func TestExtract_PartialRecord(t *testing.T) {
	e := New(Options{})

	// A clear record verb with no parsable amount still reports what it
	// found; whether that is good enough to commit is the caller's call.
	got := e.Extract(context.Background(), "Paid rent")
	if got.Intent != domain.IntentRecord {
		t.Fatalf("Intent = %v, want RECORD", got.Intent)
	}
	if got.Type != domain.TypeExpense {
		t.Errorf("Type = %v, want EXPENSE", got.Type)
	}
	if got.Amount != nil {
		t.Errorf("Amount = %v, want nil", *got.Amount)
	}
}

func TestExtract_DebtWithoutPartyIsLowConfidence(t *testing.T) {
	e := New(Options{})

	got := e.Extract(context.Background(), "paid back 5000")
	if got.Intent != domain.IntentRecord || got.Type != domain.TypeDebtPayment {
		t.Fatalf("got %+v, want RECORD/DEBT_PAYMENT", got)
	}
	if got.Counterparty != "" {
		t.Errorf("Counterparty = %q, want empty (never fabricated)", got.Counterparty)
	}
	if !got.LowConfidence {
		t.Error("expected LowConfidence for a repayment with no named party")
	}
}

func TestExtract_Idempotent(t *testing.T) {
	e := New(Options{})

	for _, text := range []string{"Musa owes me 15000", "Sold bread 5000", "asdf"} {
		first := e.Extract(context.Background(), text)
		second := e.Extract(context.Background(), text)
		if first.Intent != second.Intent || first.Type != second.Type ||
			first.Category != second.Category || first.Counterparty != second.Counterparty ||
			first.QueryRange != second.QueryRange || first.LowConfidence != second.LowConfidence {
			t.Errorf("Extract(%q) not idempotent: %+v vs %+v", text, first, second)
		}
		switch {
		case first.Amount == nil && second.Amount == nil:
		case first.Amount != nil && second.Amount != nil && *first.Amount == *second.Amount:
		default:
			t.Errorf("Extract(%q) amounts differ", text)
		}
	}
}

func TestExtractWithDefaultType(t *testing.T) {
	e := New(Options{})

	got := e.ExtractWithDefaultType(context.Background(), "5000", domain.TypeIncome)
	if got.Intent != domain.IntentRecord || got.Type != domain.TypeIncome {
		t.Fatalf("got %+v, want RECORD/INCOME", got)
	}
	if got.Amount == nil || *got.Amount != 5000 {
		t.Errorf("Amount = %v, want 5000", got.Amount)
	}

	// Text with its own intent ignores the default.
	got = e.ExtractWithDefaultType(context.Background(), "Paid rent 300000", domain.TypeIncome)
	if got.Type != domain.TypeExpense {
		t.Errorf("Type = %v, want EXPENSE", got.Type)
	}

	// Unintelligible text stays unknown even with a default.
	got = e.ExtractWithDefaultType(context.Background(), "asdf qwer", domain.TypeIncome)
	if got.Intent != domain.IntentUnknown {
		t.Errorf("Intent = %v, want UNKNOWN", got.Intent)
	}
}
