package core

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/JonMunkholm/nem12ingest/internal/nem12"
)

func readErrorLog(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return rows
}

func TestErrorLog_Record(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "error_log.csv")
	l, err := OpenErrorLog(path)
	if err != nil {
		t.Fatalf("OpenErrorLog() error = %v", err)
	}

	events := []nem12.ErrorEvent{
		{FileID: "a.csv", Line: 3, RecordType: "300", Kind: nem12.KindValue, Reason: nem12.ReasonNonNumeric},
		{FileID: "a.csv", Line: 7, RecordType: "999", Kind: nem12.KindUnknownRecord, Reason: "reason, with comma"},
	}
	for _, ev := range events {
		if err := l.Record(ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	rows := readErrorLog(t, path)
	want := [][]string{
		{"a.csv", "3", "300", nem12.ReasonNonNumeric},
		{"a.csv", "7", "999", "reason, with comma"},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d field %d = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestErrorLog_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error_log.csv")
	for i := 0; i < 2; i++ {
		l, err := OpenErrorLog(path)
		if err != nil {
			t.Fatalf("OpenErrorLog() error = %v", err)
		}
		if err := l.Record(nem12.ErrorEvent{FileID: "f", Line: i + 1, RecordType: "300"}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		l.Close()
	}

	if rows := readErrorLog(t, path); len(rows) != 2 {
		t.Errorf("got %d rows across reopen, want 2", len(rows))
	}
}

func TestErrorLog_ConcurrentRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error_log.csv")
	l, err := OpenErrorLog(path)
	if err != nil {
		t.Fatalf("OpenErrorLog() error = %v", err)
	}
	defer l.Close()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				l.Record(nem12.ErrorEvent{FileID: "f", Line: w*100 + i, RecordType: "300", Reason: "r"})
			}
		}(w)
	}
	wg.Wait()

	rows := readErrorLog(t, path)
	if len(rows) != 400 {
		t.Errorf("got %d rows, want 400", len(rows))
	}
	for i, row := range rows {
		if len(row) != 4 {
			t.Errorf("row %d has %d fields, want 4", i, len(row))
		}
	}
}

func TestErrorLog_RecordAfterClose(t *testing.T) {
	l, err := OpenErrorLog(filepath.Join(t.TempDir(), "error_log.csv"))
	if err != nil {
		t.Fatalf("OpenErrorLog() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := l.Record(nem12.ErrorEvent{FileID: "f"}); err == nil {
		t.Error("Record() after Close expected error")
	}
}
