package extractor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mukisa/dukabook/internal/domain"
)

// normalize coerces any backend output to the declared ParseResult schema.
// It is the single gate every result passes through on the way out: enum
// violations collapse to UNKNOWN, fields that do not belong to the intent are
// cleared, and raw text always reflects the original input.
func normalize(res domain.ParseResult, rawText string) domain.ParseResult {
	res.RawText = rawText
	res.Counterparty = trimName(res.Counterparty)
	res.Category = strings.TrimSpace(res.Category)

	switch res.Intent {
	case domain.IntentRecord:
		if res.Type != "" {
			parsed, err := domain.ParseTransactionType(string(res.Type))
			if err != nil {
				return domain.Unknown(rawText)
			}
			res.Type = parsed
		}
		if res.Amount != nil {
			if *res.Amount < 0 {
				res.Amount = nil
			} else if *res.Amount == 0 {
				res.LowConfidence = true
			}
		}
		if (res.Type == domain.TypeDebt || res.Type == domain.TypeDebtPayment) && res.Counterparty == "" {
			res.LowConfidence = true
		}
		res.QueryRange = ""
		return res

	case domain.IntentQuery:
		switch res.QueryRange {
		case domain.RangeToday, domain.RangeWeek, domain.RangeMonth, "":
		default:
			res.QueryRange = ""
		}
		return domain.ParseResult{
			Intent:     domain.IntentQuery,
			QueryRange: res.QueryRange,
			RawText:    rawText,
		}

	default:
		return domain.Unknown(rawText)
	}
}

// parseResultFromModel maps a generic decoded JSON object from a model
// response onto a ParseResult. Field-level type mismatches are errors so the
// caller can degrade the whole response rather than keep half of it.
func parseResultFromModel(obj map[string]interface{}) (domain.ParseResult, error) {
	intent, err := getStringField(obj, "intent", true)
	if err != nil {
		return domain.ParseResult{}, err
	}

	res := domain.ParseResult{Intent: domain.Intent(strings.ToUpper(strings.TrimSpace(intent)))}

	if typ, err := getOptionalStringField(obj, "type"); err != nil {
		return domain.ParseResult{}, err
	} else if typ != nil {
		res.Type = domain.TransactionType(*typ)
	}

	if amount, err := getOptionalFloat64Field(obj, "amount"); err != nil {
		return domain.ParseResult{}, err
	} else {
		res.Amount = amount
	}

	if category, err := getOptionalStringField(obj, "category"); err != nil {
		return domain.ParseResult{}, err
	} else if category != nil {
		res.Category = *category
	}

	if party, err := getOptionalStringField(obj, "counterparty"); err != nil {
		return domain.ParseResult{}, err
	} else if party != nil {
		res.Counterparty = *party
	}

	if queryRange, err := getOptionalStringField(obj, "query_range"); err != nil {
		return domain.ParseResult{}, err
	} else if queryRange != nil {
		res.QueryRange = domain.QueryRange(strings.ToLower(*queryRange))
	}

	if low, ok := obj["low_confidence"].(bool); ok {
		res.LowConfidence = low
	}

	return res, nil
}

// receiptFieldsFromModel maps a decoded JSON object from a receipt-scan model
// response onto ReceiptFields. Every field is optional; the model reports what
// it can read and nothing more.
func receiptFieldsFromModel(obj map[string]interface{}) (domain.ReceiptFields, error) {
	var fields domain.ReceiptFields
	for key, dst := range map[string]*string{
		"merchant": &fields.Merchant,
		"currency": &fields.Currency,
		"category": &fields.Category,
		"date":     &fields.Date,
		"raw_text": &fields.RawText,
	} {
		v, err := getOptionalStringField(obj, key)
		if err != nil {
			return domain.ReceiptFields{}, err
		}
		if v != nil {
			*dst = *v
		}
	}

	// Amount may come back as a number or a string depending on how the
	// model read the paper; both are carried as text and parsed locally.
	switch v := obj["amount"].(type) {
	case nil:
	case string:
		fields.Amount = strings.TrimSpace(v)
	case float64:
		fields.Amount = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return domain.ReceiptFields{}, fmt.Errorf("field %q has type %T, want string or number", "amount", v)
	}

	return fields, nil
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
	if required && strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("required field %q is empty", key)
	}
	return s, nil
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("field %q has type %T, want string or null", key, v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	return &s, nil
}

func getOptionalFloat64Field(m map[string]interface{}, key string) (*float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case float64:
		f := val
		return &f, nil
	case int: // unlikely from encoding/json, but harmless to support
		f := float64(val)
		return &f, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want number or null", key, v)
	}
}
