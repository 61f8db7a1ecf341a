package nem12

// RecordType identifies the role of a record within a NEM12 file.
type RecordType int

const (
	RecordUnknown RecordType = iota
	RecordHeader
	RecordNMI
	RecordInterval
	RecordIgnored
	RecordFooter
)

// Record type codes as they appear in the first field of a line.
const (
	CodeHeader   = "100"
	CodeNMI      = "200"
	CodeInterval = "300"
	CodeIgnored  = "500"
	CodeFooter   = "900"
)

// ClassifyRecord maps a type code to its RecordType. Codes are matched
// exactly; anything unrecognised is RecordUnknown.
func ClassifyRecord(code string) RecordType {
	switch code {
	case CodeHeader:
		return RecordHeader
	case CodeNMI:
		return RecordNMI
	case CodeInterval:
		return RecordInterval
	case CodeIgnored:
		return RecordIgnored
	case CodeFooter:
		return RecordFooter
	default:
		return RecordUnknown
	}
}

func (t RecordType) String() string {
	switch t {
	case RecordHeader:
		return "header"
	case RecordNMI:
		return "nmi"
	case RecordInterval:
		return "interval"
	case RecordIgnored:
		return "ignored"
	case RecordFooter:
		return "footer"
	default:
		return "unknown"
	}
}
