package core

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JonMunkholm/nem12ingest/internal/config"
	"github.com/JonMunkholm/nem12ingest/internal/nem12"
	"github.com/JonMunkholm/nem12ingest/internal/store"
)

// Parser scans one file and reports to sinks.
type Parser interface {
	Parse(fileID string, r io.Reader, sinks nem12.Sinks) (nem12.AuditRecord, error)
}

// NewParserFunc builds a parser from the configured parser settings.
type NewParserFunc func(cfg config.ParserConfig, logger *slog.Logger) Parser

// FormatDefinition describes one supported file format.
type FormatDefinition struct {
	Key        string   // Unique identifier: "nem12"
	Label      string   // Display name
	Extensions []string // Lower-case file extensions including the dot: ".csv"
	NewParser  NewParserFunc
}

// Store is the persistence the service needs. Satisfied by *store.Store.
type Store interface {
	CreateRun(ctx context.Context, nr store.NewRun) (store.Run, error)
	FinishRun(ctx context.Context, id uuid.UUID, res store.RunResult) error
	FailRun(ctx context.Context, id uuid.UUID, res store.RunResult, message string) error
	GetRun(ctx context.Context, id uuid.UUID) (store.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]store.Run, error)
	RunExistsForHash(ctx context.Context, hash string) (bool, error)
	InsertError(ctx context.Context, runID uuid.UUID, ev nem12.ErrorEvent) error
	ListErrors(ctx context.Context, runID uuid.UUID, limit, offset int) ([]store.ErrorRow, error)
	OpenReadings(ctx context.Context, runID uuid.UUID, batchSize int) store.BatchSink
}

// IngestResult summarises one ingest.
type IngestResult struct {
	RunID        uuid.UUID         `json:"run_id"`
	FileName     string            `json:"file_name"`
	Format       string            `json:"format"`
	Status       store.RunStatus   `json:"status"`
	Audit        nem12.AuditRecord `json:"audit"`
	RowsEmitted  int64             `json:"rows_emitted"`
	RowsInserted int64             `json:"rows_inserted"`
	ErrorCount   int64             `json:"error_count"`
	FileHash     string            `json:"file_hash,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// DirResult summarises one pass over an inbox directory.
type DirResult struct {
	Ingested []*IngestResult `json:"ingested"`
	Skipped  []string        `json:"skipped"`
	Failed   []FileFailure   `json:"failed"`
}

// FileFailure is a file that could not be ingested.
type FileFailure struct {
	Path    string `json:"path"`
	Error   string `json:"error"`
	MovedTo string `json:"moved_to,omitempty"` // Set when the file was moved out of the inbox
}
