package receipts

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mukisa/dukabook/internal/domain"
	"github.com/mukisa/dukabook/internal/extractor"
	"github.com/mukisa/dukabook/internal/resilience"
)

// FieldExtractor reads the merchant, total and date off a receipt image.
// Implemented by the Gemini backend.
type FieldExtractor interface {
	ExtractReceiptFields(ctx context.Context, data []byte, mimeType string) (domain.ReceiptFields, error)
}

// Scanner turns a stored receipt image into a draft transaction. The draft is
// never committed here; the owner confirms it first.
type Scanner struct {
	storage   Storage
	fields    FieldExtractor
	extractor *extractor.Extractor
	log       zerolog.Logger
}

func NewScanner(storage Storage, fields FieldExtractor, ex *extractor.Extractor, log zerolog.Logger) *Scanner {
	return &Scanner{
		storage:   storage,
		fields:    fields,
		extractor: ex,
		log:       log,
	}
}

// Scan fetches the receipt at gcsURI, extracts its fields and maps them onto
// a draft transaction. Receipts default to expenses.
func (s *Scanner) Scan(ctx context.Context, gcsURI, mimeType string) (domain.ParseResult, error) {
	var data []byte
	// Object reads can hit transient storage errors right after upload
	err := resilience.RetryWithBackoff(ctx, resilience.Config{MaxRetries: 3, InitialBackoff: 200 * time.Millisecond}, func() error {
		var ferr error
		data, ferr = s.storage.Fetch(ctx, gcsURI)
		return ferr
	})
	if err != nil {
		return domain.ParseResult{}, fmt.Errorf("fetching receipt %s: %w", gcsURI, err)
	}

	fields, err := s.fields.ExtractReceiptFields(ctx, data, mimeType)
	if err != nil {
		return domain.ParseResult{}, fmt.Errorf("extracting receipt fields: %w", err)
	}

	res := s.extractor.FromReceiptFields(fields, domain.TypeExpense)
	s.log.Info().
		Str("gcs_uri", gcsURI).
		Str("merchant", fields.Merchant).
		Bool("low_confidence", res.LowConfidence).
		Msg("scanned receipt")

	return res, nil
}
