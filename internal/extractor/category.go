package extractor

import (
	"strings"
	"unicode"
)

// builtinCategories maps keywords to category labels. Lookups are advisory:
// the committed category is free text and nothing validates against this map.
var builtinCategories = map[string]string{
	"fuel":        "Fuel",
	"petrol":      "Fuel",
	"diesel":      "Fuel",
	"rent":        "Rent",
	"stock":       "Stock",
	"restocking":  "Stock",
	"airtime":     "Airtime",
	"data":        "Airtime",
	"transport":   "Transport",
	"boda":        "Transport",
	"taxi":        "Transport",
	"salary":      "Salary",
	"wages":       "Salary",
	"electricity": "Utilities",
	"power":       "Utilities",
	"water":       "Utilities",
	"lunch":       "Food",
	"food":        "Food",
}

// Filler that can never be the subject of the sentence.
var categoryStopwords = map[string]bool{
	"i": true, "me": true, "my": true, "we": true, "our": true, "the": true,
	"a": true, "an": true, "of": true, "for": true, "from": true, "to": true,
	"on": true, "in": true, "at": true, "with": true, "some": true, "and": true,
	"today": true, "yesterday": true, "this": true, "that": true, "back": true,
	"cash": true, "ugx": true, "usd": true, "shs": true, "shillings": true,
}

// categoryFrom derives a short label from the dominant noun of the utterance:
// the first token that is not a verb, a stopword, an amount, or the named
// counterparty. Known keywords map to their label ("fuel" -> "Fuel"); anything
// else is title-cased as-is. Empty means the caller's default applies.
func (r *ruleBackend) categoryFrom(tokens []token, counterparty string) string {
	for _, t := range tokens {
		if t.clean == "" || categoryStopwords[t.clean] || notNames[t.clean] {
			continue
		}
		if _, isAmount := parseAmountToken(t.clean); isAmount {
			continue
		}
		if counterparty != "" && strings.EqualFold(t.raw, counterparty) {
			continue
		}
		if label, ok := r.categories[t.clean]; ok {
			return label
		}
		return titleCase(t.clean)
	}
	return ""
}

func titleCase(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
