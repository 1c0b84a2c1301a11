package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is the canonical form of an extracted field: either a number
// (a parseable amount) or a string (everything else, including the
// Unrecognized sentinel). The zero Value marshals as "".
type Value struct {
	num      float64
	str      string
	isNumber bool
}

// NumberValue wraps a parsed amount.
func NumberValue(v float64) Value { return Value{num: v, isNumber: true} }

// StringValue wraps a string form.
func StringValue(s string) Value { return Value{str: s} }

// IsNumber reports whether the value carries a parsed number.
func (v Value) IsNumber() bool { return v.isNumber }

// Number returns the numeric form, valid only when IsNumber is true.
func (v Value) Number() float64 { return v.num }

// String returns the string form; numbers are formatted without
// trailing zeros beyond the parsed precision.
func (v Value) String() string {
	if v.isNumber {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

// MarshalJSON emits a JSON number for numeric values and a JSON string
// otherwise, so amounts cross the API boundary as numbers.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isNumber {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}

// UnmarshalJSON accepts either form.
func (v *Value) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*v = NumberValue(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("value must be a number or a string: %w", err)
	}
	*v = StringValue(s)
	return nil
}

// Record is the structured result for one document. The four mandatory
// fields are always present as keys, either a value or the sentinel;
// optional fields are omitted when nothing matched. Confidence scores
// are internal diagnostics and never serialized.
type Record struct {
	INN           string            `json:"inn"`
	Vendor        string            `json:"vendor"`
	Date          string            `json:"date"`
	Total         Value             `json:"total"`
	InvoiceNumber string            `json:"invoice_number,omitempty"`
	Time          string            `json:"time,omitempty"`
	Phone         string            `json:"phone,omitempty"`
	Email         string            `json:"email,omitempty"`
	Address       string            `json:"address,omitempty"`
	OFD           string            `json:"ofd,omitempty"`
	Extra         map[string]string `json:"auto_extracted,omitempty"`

	// Confidence holds the per-field probabilities of the external
	// classifier when one is configured. Diagnostic only: it never
	// overrides a pattern-derived value and is stripped before the
	// record leaves the service.
	Confidence map[string]float64 `json:"-"`
}

// newRecord returns a record with every mandatory field pre-filled with
// the sentinel, so a field the matchers miss is still present as a key.
func newRecord() *Record {
	return &Record{
		INN:    Unrecognized,
		Vendor: Unrecognized,
		Date:   Unrecognized,
		Total:  StringValue(Unrecognized),
	}
}

// Field returns the normalized value for a named field, used by the
// trainer's prediction comparison.
func (r *Record) Field(name string) string {
	switch name {
	case FieldINN:
		return r.INN
	case FieldVendor:
		return r.Vendor
	case FieldDate:
		return r.Date
	case FieldTotal:
		return r.Total.String()
	case FieldInvoiceNumber:
		return r.InvoiceNumber
	case FieldTime:
		return r.Time
	case FieldPhone:
		return r.Phone
	case FieldEmail:
		return r.Email
	case FieldAddress:
		return r.Address
	case FieldOFD:
		return r.OFD
	default:
		return ""
	}
}

// setField stores a normalized value into its slot.
func (r *Record) setField(name string, v Value) {
	switch name {
	case FieldINN:
		r.INN = v.String()
	case FieldVendor:
		r.Vendor = v.String()
	case FieldDate:
		r.Date = v.String()
	case FieldTotal:
		r.Total = v
	case FieldInvoiceNumber:
		r.InvoiceNumber = v.String()
	case FieldTime:
		r.Time = v.String()
	case FieldPhone:
		r.Phone = v.String()
	case FieldEmail:
		r.Email = v.String()
	case FieldAddress:
		r.Address = v.String()
	case FieldOFD:
		r.OFD = v.String()
	}
}

// ErrorRecord is the shape a document-level failure takes. It is
// mutually exclusive with Record: callers check which side of an
// Outcome is populated before reading field values.
type ErrorRecord struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Outcome is the per-document result in a batch: exactly one of Record
// or Failure is set.
type Outcome struct {
	Record  *Record      `json:"record,omitempty"`
	Failure *ErrorRecord `json:"failure,omitempty"`
}

// OK reports whether the outcome carries a record.
func (o Outcome) OK() bool { return o.Record != nil && o.Failure == nil }
