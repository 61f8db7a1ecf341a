package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/nem12ingest/internal/nem12"
)

// ErrorRow is a persisted error event.
type ErrorRow struct {
	ID         int64     `json:"id"`
	RunID      uuid.UUID `json:"run_id"`
	Line       int       `json:"line"`
	RecordType string    `json:"record_type"`
	Kind       string    `json:"kind"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// InsertError stores one error event against a run.
func (s *Store) InsertError(ctx context.Context, runID uuid.UUID, ev nem12.ErrorEvent) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ingest_errors (run_id, line, record_type, kind, reason)
		VALUES ($1, $2, $3, $4, $5)`,
		pgUUID(runID), ev.Line, ev.RecordType, ev.Kind.String(), ev.Reason)
	if err != nil {
		return fmt.Errorf("insert error event (line %d): %w", ev.Line, err)
	}
	return nil
}

// ListErrors returns a run's error events in line order. A non-positive
// limit returns every event.
func (s *Store) ListErrors(ctx context.Context, runID uuid.UUID, limit, offset int) ([]ErrorRow, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, line, record_type, kind, reason, created_at
		FROM ingest_errors
		WHERE run_id = $1
		ORDER BY line, id
		LIMIT $2 OFFSET $3`, pgUUID(runID), limitArg, offset)
	if err != nil {
		return nil, fmt.Errorf("list errors for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []ErrorRow
	for rows.Next() {
		e := ErrorRow{RunID: runID}
		if err := rows.Scan(&e.ID, &e.Line, &e.RecordType, &e.Kind, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
