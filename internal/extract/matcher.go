package extract

import "strings"

// MatchField runs every rule of the field over the text in priority
// order and collects all occurrences, not just the first. The text is
// read-only; a rule never matches across document boundaries because
// each call sees exactly one document's text blob.
func MatchField(text string, def FieldDef, weights *WeightTable) []RawMatch {
	var matches []RawMatch
	for idx, rule := range def.Rules {
		found := rule.FindAllStringSubmatch(text, -1)
		if len(found) == 0 {
			continue
		}
		w := weights.Weight(def.Name, idx)
		for _, groups := range found {
			matches = append(matches, RawMatch{
				Value:     captureValue(groups),
				RuleIndex: idx,
				Weight:    w,
			})
		}
	}
	return matches
}

// captureValue assembles the matched value from a submatch slice.
// Single-group rules yield the group; multi-group rules (the phone
// pattern splits the number into digit blocks) yield the non-empty
// groups concatenated; group-less rules yield the whole match.
func captureValue(groups []string) string {
	switch {
	case len(groups) == 2:
		return groups[1]
	case len(groups) > 2:
		var b strings.Builder
		for _, g := range groups[1:] {
			b.WriteString(g)
		}
		return b.String()
	default:
		return groups[0]
	}
}

// MaxDecimalFallback scans the whole text for decimal-looking numbers
// and returns the raw form of the one with the greatest value, provided
// it exceeds the noise floor. Receipts list many small line-item
// amounts but the grand total is usually the largest decimal present;
// this is a deliberate heuristic, not a validated answer.
func MaxDecimalFallback(text string, noiseFloor float64) (string, bool) {
	var bestRaw string
	var bestVal float64
	found := false
	for _, raw := range decimalNumberRe.FindAllString(text, -1) {
		v, ok := parseAmount(raw)
		if !ok || v <= noiseFloor {
			continue
		}
		if !found || v > bestVal {
			bestRaw, bestVal, found = raw, v, true
		}
	}
	return bestRaw, found
}
