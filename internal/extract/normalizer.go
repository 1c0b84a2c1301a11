package extract

import (
	"strconv"
	"strings"
)

// quoteReplacer strips every quote-mark variant seen in OCR output.
var quoteReplacer = strings.NewReplacer(`"`, "", "«", "", "»", "", "“", "", "”", "")

// Normalize converts a raw match into its canonical representation.
// It never fails: any parse problem degrades to the best available
// string form.
func Normalize(field, raw string) Value {
	switch field {
	case FieldTotal:
		cleaned := cleanAmount(raw)
		if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return NumberValue(v)
		}
		return StringValue(cleaned)
	case FieldVendor:
		return StringValue(strings.TrimSpace(quoteReplacer.Replace(raw)))
	case FieldPhone:
		// the matcher already reduced the phone to its ten digits
		return StringValue("+7" + raw)
	default:
		return StringValue(strings.TrimSpace(raw))
	}
}

// cleanAmount strips grouping spaces and turns a decimal comma into a
// decimal point.
func cleanAmount(raw string) string {
	s := strings.ReplaceAll(raw, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	// comma-grouped thousands ("1,659,649.00") keep their dot; only a
	// comma acting as the decimal separator is rewritten
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	return s
}

// parseAmount parses a raw amount string leniently, reporting whether
// it produced a number.
func parseAmount(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(cleanAmount(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// foldKey normalizes a string for the trainer's lenient comparison:
// case-folded, whitespace-stripped, quote-stripped. The sentinel and
// the empty string both fold to "".
func foldKey(s string) string {
	if s == "" || s == Unrecognized {
		return ""
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	return quoteReplacer.Replace(s)
}

// lenientEqual reports whether a prediction matches ground truth:
// exact after folding, or either side contains the other.
func lenientEqual(predicted, actual string) bool {
	p, a := foldKey(predicted), foldKey(actual)
	if p == "" || a == "" {
		return p == a
	}
	return p == a || strings.Contains(p, a) || strings.Contains(a, p)
}
