// Package extractor turns short free-form utterances ("Sold bread 5000",
// "Musa owes me 15000") into structured ParseResults: an intent plus optional
// transaction type, amount, category, counterparty and query range.
//
// Extraction is a pure function of its input. The default mechanism is a
// deterministic rule backend; an optional remote backend (Gemini) can be
// injected through Options. Whatever the mechanism, the contract is the same:
// a well-formed ParseResult comes back for every input, and any internal
// failure degrades to intent UNKNOWN instead of an error.
package extractor

import (
	"context"
	"strings"

	"github.com/mukisa/dukabook/internal/domain"
)

// Backend is an alternative inference mechanism for one utterance. A backend
// may be non-deterministic (a remote model); its output is still normalized to
// the ParseResult schema before it reaches the caller.
type Backend interface {
	Infer(ctx context.Context, text string) (domain.ParseResult, error)
}

// Options configures an Extractor. The zero value gives the built-in rule
// backend with default cue words and category keywords.
type Options struct {
	// Backend, when set, replaces the rule backend for free-text input.
	// Receipt-field extraction always stays local.
	Backend Backend

	// CurrencyCues are tokens that mark an adjacent number as the monetary
	// amount when several numeric candidates appear in one utterance.
	CurrencyCues []string

	// Categories maps lowercase keywords to category labels, extending the
	// built-in set (e.g. "boda" -> "Transport").
	Categories map[string]string
}

// Extractor is the intent and field extractor. Safe for concurrent use; it
// holds no mutable state between calls.
type Extractor struct {
	backend Backend
	rules   *ruleBackend
}

// New builds an Extractor from opts.
func New(opts Options) *Extractor {
	return &Extractor{
		backend: opts.Backend,
		rules:   newRuleBackend(opts.CurrencyCues, opts.Categories),
	}
}

// Extract classifies one utterance. It never returns an error: a backend
// failure, a malformed backend response, or unintelligible text all yield
// {Intent: UNKNOWN, RawText: text}.
func (e *Extractor) Extract(ctx context.Context, text string) domain.ParseResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.Unknown(text)
	}

	if e.backend != nil {
		res, err := e.backend.Infer(ctx, trimmed)
		if err != nil {
			return domain.Unknown(text)
		}
		return normalize(res, text)
	}

	res, _ := e.rules.Infer(ctx, trimmed)
	return normalize(res, text)
}

// ExtractWithDefaultType is the quick-action path: surrounding context (a
// tapped chip, a prior turn) supplies the action, so a bare amount with no
// verb becomes a RECORD of defaultType instead of UNKNOWN. Text that carries
// its own intent is classified exactly as Extract would.
func (e *Extractor) ExtractWithDefaultType(ctx context.Context, text string, defaultType domain.TransactionType) domain.ParseResult {
	res := e.Extract(ctx, text)
	if res.Intent != domain.IntentUnknown {
		return res
	}

	amount, low, ok := e.rules.bareAmount(text)
	if !ok {
		return res
	}
	return normalize(domain.ParseResult{
		Intent:        domain.IntentRecord,
		Type:          defaultType,
		Amount:        &amount,
		RawText:       text,
		LowConfidence: low,
	}, text)
}

// FromReceiptFields builds a ParseResult from pre-OCR'd receipt fields. The
// scan is a financial event by construction, so the intent is RECORD with
// defaultType (callers pass EXPENSE for purchases). A merchant name is a named
// party and is carried as the counterparty; nothing is invented when a field
// is absent.
func (e *Extractor) FromReceiptFields(fields domain.ReceiptFields, defaultType domain.TransactionType) domain.ParseResult {
	raw := fields.RawText
	if raw == "" {
		raw = fields.Merchant
	}

	res := domain.ParseResult{
		Intent:       domain.IntentRecord,
		Type:         defaultType,
		Counterparty: trimName(fields.Merchant),
		RawText:      raw,
	}

	if amount, low, ok := e.rules.bareAmount(fields.Amount); ok {
		res.Amount = &amount
		res.LowConfidence = low
	} else {
		res.LowConfidence = true
	}

	switch {
	case strings.TrimSpace(fields.Category) != "":
		res.Category = strings.TrimSpace(fields.Category)
	case fields.Merchant != "":
		res.Category = e.rules.categoryFrom(tokenize(fields.Merchant), "")
	}

	return normalize(res, raw)
}
