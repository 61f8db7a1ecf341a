package core

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/JonMunkholm/nem12ingest/internal/nem12"
)

// ErrorLog appends error events to a CSV file as file,line,record_type,reason.
// It is shared by concurrent ingests.
type ErrorLog struct {
	path string

	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// OpenErrorLog opens path for appending, creating it and its directory if
// needed.
func OpenErrorLog(path string) (*ErrorLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create error log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open error log: %w", err)
	}
	return &ErrorLog{path: path, f: f, w: csv.NewWriter(f)}, nil
}

// Path returns the log file location.
func (l *ErrorLog) Path() string { return l.path }

// Record implements nem12.ErrorSink. Each event is flushed before Record
// returns.
func (l *ErrorLog) Record(ev nem12.ErrorEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return fmt.Errorf("error log %s is closed", l.path)
	}
	if err := l.w.Write([]string{ev.FileID, strconv.Itoa(ev.Line), ev.RecordType, ev.Reason}); err != nil {
		return fmt.Errorf("write error log: %w", err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("flush error log: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (l *ErrorLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}
	l.w.Flush()
	err := l.f.Close()
	l.f = nil
	return err
}
