package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// RunStatus is the lifecycle state of an ingest run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is one attempt to ingest one file.
type Run struct {
	ID           uuid.UUID  `json:"id"`
	FileName     string     `json:"file_name"`
	FileHash     string     `json:"file_hash,omitempty"`
	Format       string     `json:"format"`
	Status       RunStatus  `json:"status"`
	RowsEmitted  int64      `json:"rows_emitted"`
	RowsInserted int64      `json:"rows_inserted"`
	ErrorCount   int64      `json:"error_count"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// NewRun describes a run about to start.
type NewRun struct {
	FileName string
	FileHash string
	Format   string
}

// RunResult holds the totals recorded when a run ends. A non-empty FileHash
// replaces the hash given at creation.
type RunResult struct {
	RowsEmitted  int64
	RowsInserted int64
	ErrorCount   int64
	FileHash     string
}

const runColumns = `id, file_name, file_hash, format, status, rows_emitted, rows_inserted,
	error_count, error_message, started_at, finished_at`

// CreateRun inserts a run in the running state.
func (s *Store) CreateRun(ctx context.Context, nr NewRun) (Run, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO ingest_runs (id, file_name, file_hash, format, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+runColumns,
		pgUUID(uuid.New()), nr.FileName, nr.FileHash, nr.Format, string(RunRunning))

	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("create run for %s: %w", nr.FileName, err)
	}
	return run, nil
}

// FinishRun marks a run completed with its final counts.
func (s *Store) FinishRun(ctx context.Context, id uuid.UUID, res RunResult) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE ingest_runs
		SET status = $2, rows_emitted = $3, rows_inserted = $4, error_count = $5,
			file_hash = COALESCE(NULLIF($6, ''), file_hash), finished_at = now()
		WHERE id = $1`,
		pgUUID(id), string(RunCompleted), res.RowsEmitted, res.RowsInserted, res.ErrorCount, res.FileHash)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrNotFound)
	}
	return nil
}

// FailRun marks a run failed. Counts gathered before the failure are kept.
func (s *Store) FailRun(ctx context.Context, id uuid.UUID, res RunResult, message string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE ingest_runs
		SET status = $2, rows_emitted = $3, rows_inserted = $4, error_count = $5,
			file_hash = COALESCE(NULLIF($6, ''), file_hash), error_message = $7, finished_at = now()
		WHERE id = $1`,
		pgUUID(id), string(RunFailed), res.RowsEmitted, res.RowsInserted, res.ErrorCount, res.FileHash, message)
	if err != nil {
		return fmt.Errorf("fail run %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fail run %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetRun returns a run by id, or ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	row := s.db.QueryRow(ctx, `SELECT `+runColumns+` FROM ingest_runs WHERE id = $1`, pgUUID(id))
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// DefaultRunLimit applies when ListRuns is given a non-positive limit.
const DefaultRunLimit = 50

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+runColumns+`
		FROM ingest_runs
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunExistsForHash reports whether a completed run already ingested content
// with this hash.
func (s *Store) RunExistsForHash(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM ingest_runs WHERE file_hash = $1 AND status = $2)`,
		hash, string(RunCompleted)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check file hash: %w", err)
	}
	return exists, nil
}

func scanRun(row pgx.Row) (Run, error) {
	var (
		run      Run
		id       pgtype.UUID
		status   string
		finished pgtype.Timestamptz
	)
	err := row.Scan(&id, &run.FileName, &run.FileHash, &run.Format, &status,
		&run.RowsEmitted, &run.RowsInserted, &run.ErrorCount, &run.ErrorMessage,
		&run.StartedAt, &finished)
	if err != nil {
		return Run{}, err
	}
	run.ID = uuid.UUID(id.Bytes)
	run.Status = RunStatus(status)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}
