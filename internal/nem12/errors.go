package nem12

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rule violation found while scanning.
type ErrorKind int

const (
	// KindRecordField is a record with too few fields, or a misplaced header.
	KindRecordField ErrorKind = iota + 1
	// KindContext is an interval record seen before any NMI record.
	KindContext
	// KindFormat is an unparseable date or interval count.
	KindFormat
	// KindSchemaMismatch is an interval record whose value count differs
	// from the declared interval count.
	KindSchemaMismatch
	// KindValue is a single unparseable consumption value.
	KindValue
	// KindUnknownRecord is an unrecognised record type code.
	KindUnknownRecord
	// KindStructural is a file missing its header or footer. It is never
	// delivered as an event; Parse returns it as a *StructuralError.
	KindStructural
)

func (k ErrorKind) String() string {
	switch k {
	case KindRecordField:
		return "RecordFieldError"
	case KindContext:
		return "ContextError"
	case KindFormat:
		return "FormatError"
	case KindSchemaMismatch:
		return "SchemaMismatchError"
	case KindValue:
		return "ValueError"
	case KindUnknownRecord:
		return "UnknownRecordTypeError"
	case KindStructural:
		return "StructuralError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Reasons attached to error events.
const (
	ReasonHeaderNotFirst   = "100 record must be first"
	ReasonNMIFields        = "Insufficient fields in 200 record"
	ReasonNMIIntervalCount = "Invalid interval length in 200 record"
	ReasonIntervalFields   = "Insufficient fields in 300 record"
	ReasonNoNMIContext     = "No NMI context for 300 record"
	ReasonIntervalDate     = "Invalid date in 300 record"
	ReasonNonNumeric       = "Non-numeric consumption value"
	ReasonUnknownRecord    = "Unknown record type"
	ReasonFileStructure    = "File missing valid start (100) or end (900) record"
)

// ErrorEvent describes one rule violated by one line. A line may produce
// several events, one per invalid value.
type ErrorEvent struct {
	FileID     string    `json:"file"`
	Line       int       `json:"line"`
	RecordType string    `json:"record_type"`
	Kind       ErrorKind `json:"kind"`
	Reason     string    `json:"reason"`
}

func (e ErrorEvent) String() string {
	return fmt.Sprintf("%s,%d,%s,%s", e.FileID, e.Line, e.RecordType, e.Reason)
}

// ErrStructural is matched by every *StructuralError.
var ErrStructural = errors.New("nem12: structural error")

// StructuralError is returned by Parse when the file has no 100 record or
// no 900 record.
type StructuralError struct {
	FileID        string
	MissingHeader bool
	MissingFooter bool
}

func (e *StructuralError) Error() string {
	var missing string
	switch {
	case e.MissingHeader && e.MissingFooter:
		missing = "header and footer"
	case e.MissingHeader:
		missing = "header"
	default:
		missing = "footer"
	}
	return fmt.Sprintf("%s: %s (missing %s)", e.FileID, ReasonFileStructure, missing)
}

func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// MarshalText encodes the kind by name.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
