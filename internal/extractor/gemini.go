package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"github.com/mukisa/dukabook/internal/domain"
	"github.com/mukisa/dukabook/internal/resilience"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// GeminiBackend delegates inference to Gemini. One blocking round trip per
// input, no retries here; a circuit breaker keeps a dead service from holding
// every caller for the full timeout. Callers that want retries wrap the
// Extract call, not this.
type GeminiBackend struct {
	client *genai.Client
	model  string
	cb     *gobreaker.CircuitBreaker
}

// NewGeminiBackend creates the backend. Credentials come from the
// environment, same as every other Google client in this repo.
func NewGeminiBackend(ctx context.Context, model string) (*GeminiBackend, error) {
	if model == "" {
		model = DefaultModelName
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiBackend: create genai client: %w", err)
	}
	return &GeminiBackend{
		client: client,
		model:  model,
		cb:     resilience.NewCircuitBreaker("gemini"),
	}, nil
}

const inferPrompt = `You are the intent classifier for a small-business ledger.
The owner types short sentences about money ("Sold bread 5000", "Musa owes me 15000")
or asks about past activity ("how much today").

Classify the sentence and extract its fields. Output STRICT JSON only
(no comments, no trailing text), a single object with these fields:
- "intent": "RECORD" | "QUERY" | "UNKNOWN"
- "type": "INCOME" | "EXPENSE" | "DEBT" | "DEBT_PAYMENT" or null (RECORD only)
- "amount": number or null (non-negative; "50k" means 50000)
- "category": string or null (short label like "Fuel", "Rent"; null if unclear)
- "counterparty": string or null (the named person, ONLY if one is named)
- "query_range": "today" | "week" | "month" or null (QUERY only)

Rules, first match wins:
- A debt being repaid ("paid back", "cleared", "settled" + a name) is DEBT_PAYMENT.
- A party owing money ("owes", "on credit" + a name) is DEBT.
- An outflow ("paid", "bought", "spent") with no owing semantics is EXPENSE.
- Any other money-in event ("sold", "received", "got paid") is INCOME.
- A question about totals or history is QUERY, never a new record.
- A bare number, or anything you cannot classify, is UNKNOWN.
- Never invent a counterparty or an amount that is not in the text.

Return ONLY valid raw JSON. Do NOT wrap the response in code fences.
Output must begin with "{" and end with "}".
`

// Infer sends the utterance to Gemini and coerces the response onto the
// ParseResult schema. Any transport or schema failure is an error; the
// Extractor turns it into the UNKNOWN degradation, so nothing past this
// function ever sees a raw model fault.
func (b *GeminiBackend) Infer(ctx context.Context, text string) (domain.ParseResult, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: inferPrompt},
				{Text: "Sentence: " + text},
			},
		},
	}

	obj, err := b.generateObject(ctx, contents)
	if err != nil {
		return domain.ParseResult{}, err
	}

	res, err := parseResultFromModel(obj)
	if err != nil {
		return domain.ParseResult{}, fmt.Errorf("GeminiBackend.Infer: coerce response: %w", err)
	}
	return res, nil
}

const receiptPrompt = `You are a receipt reader for a small-business ledger.
Read the attached receipt image and extract candidate fields. Output STRICT
JSON only, a single object:
- "merchant": string or null
- "amount": the grand total as a number, or null
- "currency": string or null (e.g. "UGX")
- "category": string or null (short label like "Fuel", "Stock")
- "date": string "YYYY-MM-DD" or null
- "raw_text": the visible text of the receipt, or null

If a field cannot be read, set it to null. Never guess.
Return ONLY valid raw JSON, beginning with "{" and ending with "}".
`

// ExtractReceiptFields reads candidate values off a scanned receipt. This is
// the repo's OCR black box: raw bytes plus a media type in, loosely-structured
// fields out. Turning those fields into a ParseResult is the Extractor's job.
func (b *GeminiBackend) ExtractReceiptFields(ctx context.Context, data []byte, mimeType string) (domain.ReceiptFields, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: receiptPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     data,
					},
				},
			},
		},
	}

	obj, err := b.generateObject(ctx, contents)
	if err != nil {
		return domain.ReceiptFields{}, err
	}

	fields, err := receiptFieldsFromModel(obj)
	if err != nil {
		return domain.ReceiptFields{}, fmt.Errorf("ExtractReceiptFields: coerce response: %w", err)
	}
	return fields, nil
}

// generateObject runs one GenerateContent call through the breaker and decodes
// the response as a single JSON object.
func (b *GeminiBackend) generateObject(ctx context.Context, contents []*genai.Content) (map[string]interface{}, error) {
	out, err := b.cb.Execute(func() (any, error) {
		resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, nil)
		if err != nil {
			return nil, fmt.Errorf("generate content: %w", err)
		}
		rawText := resp.Text()
		if rawText == "" {
			return nil, fmt.Errorf("empty response from model")
		}
		return rawText, nil
	})
	if err != nil {
		return nil, fmt.Errorf("gemini call: %w", err)
	}

	clean := cleanModelJSON(out.(string))

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal model JSON: %w", err)
	}
	return obj, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the no-fences instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost object if anything still surrounds it.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
