package nem12

// NMIContext is the meter declared by the most recent 200 record.
type NMIContext struct {
	NMI               string
	Active            bool
	ExpectedIntervals int
}

// ScanState is the mutable state of one Parse call. It is created fresh per
// call and handed to every record handler.
type ScanState struct {
	FileID string

	// StartSeen and EndSeen record whether a 100 and a 900 record appeared
	// anywhere in the file.
	StartSeen bool
	EndSeen   bool

	Context NMIContext

	// Emitted counts readings delivered to the reading sink, Errors counts
	// error events.
	Emitted int
	Errors  int
}

func newScanState(fileID string) *ScanState {
	return &ScanState{FileID: fileID}
}

// structurallyValid reports whether both the header and the footer were seen.
func (s *ScanState) structurallyValid() bool {
	return s.StartSeen && s.EndSeen
}
