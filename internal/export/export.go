// Package export renders ingest runs as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/nem12ingest/internal/nem12"
	"github.com/JonMunkholm/nem12ingest/internal/store"
)

// Sheet names.
const (
	SummarySheet = "Summary"
	ErrorsSheet  = "Errors"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var errorHeader = []any{"Line", "Record Type", "Kind", "Reason"}

// RunWorkbook builds a workbook with the run audit on the Summary sheet and
// one row per error event on the Errors sheet. The caller closes the file.
func RunWorkbook(run store.Run, errs []store.ErrorRow) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(ErrorsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create errors sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeSummary(f, run, bold); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeErrors(f, errs, bold); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// WriteRun writes the run workbook to w.
func WriteRun(w io.Writer, run store.Run, errs []store.ErrorRow) error {
	f, err := RunWorkbook(run, errs)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// FileName is the download name of a run workbook.
func FileName(run store.Run) string {
	return fmt.Sprintf("run-%s-errors.xlsx", run.ID)
}

func writeSummary(f *excelize.File, run store.Run, headerStyle int) error {
	audit := nem12.AuditRecord{
		FileID:      run.FileName,
		RowsEmitted: int(run.RowsEmitted),
		ErrorCount:  int(run.ErrorCount),
	}
	finished := ""
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC().Format(time.RFC3339)
	}

	rows := [][]any{
		{"Field", "Value"},
		{"Run ID", run.ID.String()},
		{"File", run.FileName},
		{"Format", run.Format},
		{"Status", string(run.Status)},
		{"Rows emitted", run.RowsEmitted},
		{"Rows inserted", run.RowsInserted},
		{"Errors", run.ErrorCount},
		{"File hash", run.FileHash},
		{"Started", run.StartedAt.UTC().Format(time.RFC3339)},
		{"Finished", finished},
		{"Failure", run.ErrorMessage},
		{"Audit", audit.String()},
	}
	if err := setRows(f, SummarySheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 16); err != nil {
		return fmt.Errorf("size summary columns: %w", err)
	}
	return f.SetColWidth(SummarySheet, "B", "B", 70)
}

func writeErrors(f *excelize.File, errs []store.ErrorRow, headerStyle int) error {
	rows := make([][]any, 0, len(errs)+1)
	rows = append(rows, errorHeader)
	for _, e := range errs {
		rows = append(rows, []any{e.Line, e.RecordType, e.Kind, e.Reason})
	}
	if err := setRows(f, ErrorsSheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(ErrorsSheet, "A1", "D1", headerStyle); err != nil {
		return fmt.Errorf("style errors header: %w", err)
	}
	if err := f.SetPanes(ErrorsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze errors header: %w", err)
	}
	return f.SetColWidth(ErrorsSheet, "D", "D", 60)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
