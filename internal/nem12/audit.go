package nem12

import "fmt"

// AuditRecord summarises one Parse call.
type AuditRecord struct {
	FileID      string `json:"file"`
	RowsEmitted int    `json:"rows_emitted"`
	ErrorCount  int    `json:"error_count"`
}

// String renders the one-line audit summary.
func (a AuditRecord) String() string {
	return fmt.Sprintf("File: %s, Rows inserted: %d, Errors: %d", a.FileID, a.RowsEmitted, a.ErrorCount)
}

func auditFor(st *ScanState) AuditRecord {
	return AuditRecord{
		FileID:      st.FileID,
		RowsEmitted: st.Emitted,
		ErrorCount:  st.Errors,
	}
}
