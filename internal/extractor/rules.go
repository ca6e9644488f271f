package extractor

import (
	"context"
	"strings"
	"unicode"

	"github.com/mukisa/dukabook/internal/domain"
)

// ruleBackend is the built-in deterministic mechanism. It works on shallow
// keyword and position rules only; no tokenizer or parser beyond splitting on
// whitespace. Same input, same output, every time.
type ruleBackend struct {
	cues       map[string]bool
	categories map[string]string
}

var defaultCurrencyCues = []string{
	"ugx", "usd", "kes", "ksh", "tzs", "shs", "sh", "shillings", "cash", "$",
}

func newRuleBackend(cues []string, categories map[string]string) *ruleBackend {
	if len(cues) == 0 {
		cues = defaultCurrencyCues
	}
	cueSet := make(map[string]bool, len(cues))
	for _, c := range cues {
		cueSet[strings.ToLower(c)] = true
	}

	cats := make(map[string]string, len(builtinCategories)+len(categories))
	for k, v := range builtinCategories {
		cats[k] = v
	}
	for k, v := range categories {
		cats[strings.ToLower(k)] = v
	}

	return &ruleBackend{cues: cueSet, categories: cats}
}

// token is one whitespace-separated word, kept in both its original form
// (capitalization matters for names) and a cleaned lowercase form.
type token struct {
	raw   string
	clean string
}

func tokenize(text string) []token {
	fields := strings.Fields(text)
	tokens := make([]token, 0, len(fields))
	for _, f := range fields {
		trimmed := strings.Trim(f, ".,!?;:'\"()")
		tokens = append(tokens, token{
			raw:   trimmed,
			clean: strings.ToLower(strings.TrimSuffix(trimmed, "'s")),
		})
	}
	return tokens
}

// Infer classifies text with the precedence rules: query shapes first, then
// repayment, owing, outflow, inflow; a bare number with no verb is UNKNOWN.
// The error return is always nil; it exists to satisfy Backend.
func (r *ruleBackend) Infer(_ context.Context, text string) (domain.ParseResult, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return domain.Unknown(text), nil
	}

	if isQuery(tokens) {
		return domain.ParseResult{
			Intent:     domain.IntentQuery,
			QueryRange: queryRange(tokens),
			RawText:    text,
		}, nil
	}

	res := domain.ParseResult{RawText: text}

	// First matching rule wins.
	switch {
	case hasRepaymentPhrase(tokens):
		res.Type = domain.TypeDebtPayment
		res.Counterparty = counterpartyFor(tokens, repaymentAnchor(tokens))
	case hasDebtPhrase(tokens):
		res.Type = domain.TypeDebt
		res.Counterparty = counterpartyFor(tokens, debtAnchor(tokens))
	case hasBigram(tokens, "got", "paid"):
		// "Got paid" is money in; it must not fall to the outflow rule
		// on the word "paid".
		res.Type = domain.TypeIncome
	case hasAnyVerb(tokens, expenseVerbs):
		res.Type = domain.TypeExpense
	case hasAnyVerb(tokens, incomeVerbs):
		res.Type = domain.TypeIncome
	default:
		// No verb and no debt semantics: only a surrounding default
		// action could make this a record, so it is not one here.
		return domain.Unknown(text), nil
	}

	// A matched repayment or owing phrase without a nameable party is
	// reported as found, flagged low-confidence; commit-side policy blocks
	// it until the owner supplies the party.
	if (res.Type == domain.TypeDebt || res.Type == domain.TypeDebtPayment) && res.Counterparty == "" {
		res.LowConfidence = true
	}

	res.Intent = domain.IntentRecord

	amount, low := r.pickAmount(tokens)
	res.Amount = amount
	res.LowConfidence = res.LowConfidence || low

	if res.Type == domain.TypeIncome || res.Type == domain.TypeExpense {
		if party := namedParty(tokens); party != "" {
			res.Counterparty = party
		}
		res.Category = r.categoryFrom(tokens, res.Counterparty)
	}

	return res, nil
}

// bareAmount parses text that is expected to be just a monetary quantity,
// possibly with a currency marker ("5000", "50k", "UGX 300,000"). Text
// carrying anything beyond numbers and currency words is not bare, so a
// sentence whose classification failed can never sneak in here.
func (r *ruleBackend) bareAmount(text string) (amount float64, low bool, ok bool) {
	tokens := tokenize(text)
	for _, t := range tokens {
		if r.cues[t.clean] {
			continue
		}
		if _, numeric := parseAmountToken(t.clean); !numeric {
			return 0, false, false
		}
	}
	parsed, lowConf := r.pickAmount(tokens)
	if parsed == nil {
		return 0, false, false
	}
	return *parsed, lowConf, true
}

var expenseVerbs = []string{"paid", "bought", "spent", "purchased", "pay", "buy"}

var incomeVerbs = []string{"sold", "received", "earned", "collected", "made", "sell"}

func hasAnyVerb(tokens []token, verbs []string) bool {
	for _, t := range tokens {
		for _, v := range verbs {
			if t.clean == v {
				return true
			}
		}
	}
	return false
}

func hasBigram(tokens []token, first, second string) bool {
	return bigramIndex(tokens, first, second) >= 0
}

func bigramIndex(tokens []token, first, second string) int {
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].clean == first && tokens[i+1].clean == second {
			return i
		}
	}
	return -1
}

func tokenIndex(tokens []token, words ...string) int {
	for i, t := range tokens {
		for _, w := range words {
			if t.clean == w {
				return i
			}
		}
	}
	return -1
}

// Repayment: a debt being returned. "paid back" style bigrams or a
// settling verb.
func hasRepaymentPhrase(tokens []token) bool {
	return bigramIndex(tokens, "paid", "back") >= 0 ||
		bigramIndex(tokens, "pay", "back") >= 0 ||
		tokenIndex(tokens, "cleared", "settled", "repaid") >= 0
}

// repaymentAnchor returns the index of the first repayment word, used as the
// position to look for the named party around.
func repaymentAnchor(tokens []token) int {
	if i := bigramIndex(tokens, "paid", "back"); i >= 0 {
		return i
	}
	if i := bigramIndex(tokens, "pay", "back"); i >= 0 {
		return i
	}
	return tokenIndex(tokens, "cleared", "settled", "repaid")
}

// Owing: a party owing money. "owes", "owe", "borrowed", "on credit".
func hasDebtPhrase(tokens []token) bool {
	return tokenIndex(tokens, "owes", "owe", "borrowed") >= 0 ||
		bigramIndex(tokens, "on", "credit") >= 0
}

func debtAnchor(tokens []token) int {
	if i := tokenIndex(tokens, "owes", "owe", "borrowed"); i >= 0 {
		return i
	}
	return bigramIndex(tokens, "on", "credit")
}

// historyNouns are the things a query asks about. A record sentence names
// what happened; a query names a kind of past activity.
var historyNouns = []string{
	"sales", "expenses", "spending", "income", "transactions", "purchases",
	"activity", "totals",
}

func hasRecordVerb(tokens []token) bool {
	return hasAnyVerb(tokens, incomeVerbs) || hasAnyVerb(tokens, expenseVerbs) ||
		hasRepaymentPhrase(tokens) || hasDebtPhrase(tokens)
}

// Query shapes: a leading listing word, an asking bigram, or a temporal
// window named together with a history noun ("this week's expenses").
// Deliberately narrow so "Paid rent 5000" can never look like a question.
func isQuery(tokens []token) bool {
	switch tokens[0].clean {
	case "show", "list", "display", "summary", "report":
		return true
	}
	if hasBigram(tokens, "how", "much") || hasBigram(tokens, "how", "many") {
		return true
	}
	if tokens[0].clean == "what" && len(tokens) > 1 {
		switch tokens[1].clean {
		case "did", "have", "are", "is", "were":
			return true
		}
	}
	if queryRange(tokens) != "" && tokenIndex(tokens, historyNouns...) >= 0 && !hasRecordVerb(tokens) {
		return true
	}
	return false
}

// queryRange maps temporal phrases to the closed today|week|month set. No
// match leaves the range empty; the caller decides what an undated query
// means.
func queryRange(tokens []token) domain.QueryRange {
	joined := " "
	for _, t := range tokens {
		joined += t.clean + " "
	}
	switch {
	case strings.Contains(joined, " today "):
		return domain.RangeToday
	case strings.Contains(joined, " week "), strings.Contains(joined, " 7 days "):
		return domain.RangeWeek
	case strings.Contains(joined, " month "), strings.Contains(joined, " 30 days "):
		return domain.RangeMonth
	}
	return ""
}

// counterpartyFor finds the named party around an owing/repayment anchor: the
// capitalized token just before it ("Musa owes me"), then the first one after
// it ("Paid back Musa 5000"), then anywhere else in the sentence ("Gave Sarah
// sugar on credit"). Nothing is fabricated when no token names one.
func counterpartyFor(tokens []token, anchor int) string {
	if anchor < 0 {
		return ""
	}
	if anchor > 0 && isName(tokens[anchor-1]) {
		return trimName(tokens[anchor-1].raw)
	}
	for i := anchor + 1; i < len(tokens) && i <= anchor+3; i++ {
		if isName(tokens[i]) {
			return trimName(tokens[i].raw)
		}
	}
	// Fallback scan skips the sentence-start token: its capital letter
	// says nothing about it being a name.
	for i := 1; i < len(tokens); i++ {
		if i != anchor && isName(tokens[i]) {
			return trimName(tokens[i].raw)
		}
	}
	return ""
}

// namedParty looks for an explicitly named other side in an income/expense
// narrative: "from John", "to Amina".
func namedParty(tokens []token) string {
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].clean == "from" || tokens[i].clean == "to" {
			if isName(tokens[i+1]) {
				return trimName(tokens[i+1].raw)
			}
		}
	}
	return ""
}

// Words that look like names (leading capital) but never are one here:
// pronouns and the verbs this grammar knows.
var notNames = map[string]bool{
	"i": true, "he": true, "she": true, "they": true, "we": true, "you": true,
	"it": true, "who": true, "someone": true, "somebody": true, "customer": true,
	"paid": true, "pay": true, "sold": true, "sell": true, "bought": true,
	"buy": true, "spent": true, "purchased": true, "received": true, "got": true,
	"gave": true, "give": true, "took": true, "lent": true, "earned": true,
	"collected": true, "made": true, "owes": true, "owe": true, "cleared": true,
	"settled": true, "repaid": true, "borrowed": true,
	"today": true, "yesterday": true,
}

func isName(t token) bool {
	if t.raw == "" || notNames[t.clean] {
		return false
	}
	runes := []rune(t.raw)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func trimName(s string) string {
	return strings.Trim(strings.TrimSpace(s), ".,!?;:'\"()")
}
