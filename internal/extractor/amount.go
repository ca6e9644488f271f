package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

// amountToken matches a monetary quantity in the forms the shop owner
// actually types: "5000", "300,000", "4500.50", "50k", "1.5m".
var amountToken = regexp.MustCompile(`^\d[\d,]*(?:\.\d+)?[kKmM]?$`)

type amountCandidate struct {
	value float64
	index int
}

// parseAmountToken parses one cleaned token into a value. Negative tokens and
// anything non-numeric fail; an amount is always a non-negative quantity.
func parseAmountToken(clean string) (float64, bool) {
	if !amountToken.MatchString(clean) {
		return 0, false
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(clean, "k"), strings.HasSuffix(clean, "K"):
		multiplier = 1_000
		clean = clean[:len(clean)-1]
	case strings.HasSuffix(clean, "m"), strings.HasSuffix(clean, "M"):
		multiplier = 1_000_000
		clean = clean[:len(clean)-1]
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(clean, ",", ""), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v * multiplier, true
}

// pickAmount scans the tokens for numeric candidates and settles on one.
// Exactly one candidate is the expected case. With several, the candidate
// adjacent to a currency cue ("UGX 5000 and 3 crates") wins; failing that the
// largest candidate is taken and the result is flagged low-confidence. The
// largest-candidate fallback is a stated tie-break policy here, not a rule the
// input language forces; callers that care can re-prompt on LowConfidence.
// A zero amount parses but is also flagged.
func (r *ruleBackend) pickAmount(tokens []token) (*float64, bool) {
	var candidates []amountCandidate
	for i, t := range tokens {
		raw := t.raw
		// A leading minus, attached or as the previous token, makes
		// this a negative number, which is never an amount.
		if strings.HasPrefix(raw, "-") || (i > 0 && tokens[i-1].raw == "-") {
			continue
		}
		if v, ok := parseAmountToken(t.clean); ok {
			candidates = append(candidates, amountCandidate{value: v, index: i})
		}
	}

	switch len(candidates) {
	case 0:
		return nil, false
	case 1:
		v := candidates[0].value
		return &v, v == 0
	}

	var cueAdjacent []amountCandidate
	for _, c := range candidates {
		if r.nextToCue(tokens, c.index) {
			cueAdjacent = append(cueAdjacent, c)
		}
	}
	if len(cueAdjacent) == 1 {
		v := cueAdjacent[0].value
		return &v, v == 0
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.value > best.value {
			best = c
		}
	}
	return &best.value, true
}

func (r *ruleBackend) nextToCue(tokens []token, i int) bool {
	if i > 0 && r.cues[tokens[i-1].clean] {
		return true
	}
	if i+1 < len(tokens) && r.cues[tokens[i+1].clean] {
		return true
	}
	return false
}
