package extract

// Rank picks one candidate according to the policy, or returns nil when
// no candidate survives. Deterministic given identical input and weight
// state; no side effects.
func Rank(candidates []RawMatch, policy Policy) *RawMatch {
	if len(candidates) == 0 {
		return nil
	}

	switch policy {
	case PolicyWeighted:
		best := candidates[0]
		for _, c := range candidates[1:] {
			// strict comparison keeps the lower rule index on ties
			if c.Weight > best.Weight {
				best = c
			}
		}
		return &best

	case PolicyMaxValue:
		var best RawMatch
		var bestVal float64
		found := false
		for _, c := range candidates {
			v, ok := parseAmount(c.Value)
			if !ok {
				continue
			}
			if !found || v > bestVal {
				best, bestVal, found = c, v, true
			}
		}
		if !found {
			return nil
		}
		return &best

	default:
		// first match: candidates arrive in rule-priority order, so the
		// head of the list is the winner
		return &candidates[0]
	}
}
