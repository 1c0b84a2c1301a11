package extract

import "regexp"

// Field names used as keys in extraction records and weight tables.
const (
	FieldINN           = "inn"
	FieldVendor        = "vendor"
	FieldDate          = "date"
	FieldTotal         = "total"
	FieldInvoiceNumber = "invoice_number"
	FieldTime          = "time"
	FieldPhone         = "phone"
	FieldEmail         = "email"
	FieldAddress       = "address"
	FieldOFD           = "ofd"
)

// MandatoryFields are always present in a record, either as a value
// or as the Unrecognized sentinel.
var MandatoryFields = []string{FieldINN, FieldVendor, FieldDate, FieldTotal}

// Unrecognized is the sentinel stored for a mandatory field that no
// pattern matched. It is distinct from field absence.
const Unrecognized = "UNRECOGNIZED"

// Policy selects how a ranker picks one candidate among several.
type Policy string

const (
	// PolicyFirstMatch returns the first candidate of the lowest-index
	// rule that matched anything. Cascades short-circuit.
	PolicyFirstMatch Policy = "first_match"

	// PolicyWeighted returns the candidate whose rule weight is highest;
	// ties are broken by lower rule index.
	PolicyWeighted Policy = "weighted"

	// PolicyMaxValue returns the candidate with the greatest numeric
	// value. Candidates that fail numeric parsing are excluded.
	PolicyMaxValue Policy = "max_value"
)

// FieldDef identifies one extractable field: its ordered rule cascade
// and the tie-break policy applied to raw matches. Definitions are
// created at process start and never mutated; trainable state lives in
// a WeightTable keyed by field name and rule index.
type FieldDef struct {
	Name      string
	Policy    Policy
	Mandatory bool
	Rules     []*regexp.Regexp
}

// RawMatch is one occurrence produced by a pattern rule. It is
// ephemeral: discarded as soon as ranking picks a winner.
type RawMatch struct {
	Value     string
	RuleIndex int
	Weight    float64
}
