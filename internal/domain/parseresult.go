package domain

import (
	"strings"
	"time"
)

// Intent is the high-level purpose of an utterance.
type Intent string

const (
	IntentRecord  Intent = "RECORD"
	IntentQuery   Intent = "QUERY"
	IntentUnknown Intent = "UNKNOWN"
)

// QueryRange is the closed set of relative time windows a query can name.
type QueryRange string

const (
	RangeToday QueryRange = "today"
	RangeWeek  QueryRange = "week"
	RangeMonth QueryRange = "month"
)

// ParseResult is the extractor's output for one input string. It is ephemeral:
// either discarded (UNKNOWN), used to drive a history lookup (QUERY), or
// promoted into a Transaction once the owner confirms it (RECORD). It is never
// persisted as-is.
type ParseResult struct {
	Intent Intent `json:"intent"`

	// RECORD fields. All optional: extraction may be partial and the
	// caller decides what is good enough to confirm.
	Type         TransactionType `json:"type,omitempty"`
	Amount       *float64        `json:"amount,omitempty"`
	Category     string          `json:"category,omitempty"`
	Counterparty string          `json:"counterparty,omitempty"`

	// QUERY field. Empty when the sentence was query-shaped but named no
	// recognizable window.
	QueryRange QueryRange `json:"query_range,omitempty"`

	// RawText is the original input, kept for diagnostics and for the
	// "couldn't understand" fallback message.
	RawText string `json:"raw_text"`

	// LowConfidence is set when the extractor had to break a tie (e.g.
	// several numeric candidates) or saw a zero amount.
	LowConfidence bool `json:"low_confidence,omitempty"`
}

// Unknown is the degradation result: every internal failure in the extractor
// collapses to this, never to an error crossing the boundary.
func Unknown(rawText string) ParseResult {
	return ParseResult{Intent: IntentUnknown, RawText: rawText}
}

// Transaction promotes a confirmed RECORD result into a committed entry.
// The id and date are the caller's to assign. A missing amount commits as
// zero; rejecting that is commit-side policy, not the extractor's.
func (p ParseResult) Transaction(id, userID string, date time.Time) Transaction {
	amount := 0.0
	if p.Amount != nil {
		amount = *p.Amount
	}
	category := strings.TrimSpace(p.Category)
	if category == "" {
		category = DefaultCategory
	}
	return Transaction{
		ID:           id,
		UserID:       userID,
		Type:         p.Type,
		Amount:       amount,
		Category:     category,
		Counterparty: strings.TrimSpace(p.Counterparty),
		Note:         p.RawText,
		Date:         date,
	}
}

// ReceiptFields holds the loosely-structured candidate values pulled from a
// scanned document before extraction. The OCR step itself is a black box; it
// only has to deliver these strings.
type ReceiptFields struct {
	Merchant string `json:"merchant,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
	Category string `json:"category,omitempty"`
	Date     string `json:"date,omitempty"`
	RawText  string `json:"raw_text,omitempty"`
}
