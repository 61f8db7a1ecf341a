package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/nem12ingest/internal/nem12"
)

// DefaultBatchSize is used when NewReadingWriter is given a non-positive size.
const DefaultBatchSize = 500

const insertReadingSQL = `
INSERT INTO meter_readings (id, nmi, ts, consumption, run_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (nmi, ts) DO NOTHING`

// BatchSink is a reading sink whose buffered rows are written on Close.
type BatchSink interface {
	nem12.ReadingSink
	Close() error
	Accepted() int64
	Inserted() int64
}

// ReadingWriter buffers readings and inserts them in batches. Readings that
// collide with an existing (nmi, ts) row are skipped and not counted as
// inserted.
//
// The first failed flush is kept; later readings are dropped and Close
// returns that error. A ReadingWriter is not safe for concurrent use.
type ReadingWriter struct {
	ctx       context.Context
	db        DB
	runID     pgtype.UUID
	batchSize int

	buf      []nem12.MeterReading
	accepted int64
	inserted int64
	err      error
}

// NewReadingWriter returns a writer tagging every row with runID.
func (s *Store) NewReadingWriter(ctx context.Context, runID uuid.UUID, batchSize int) *ReadingWriter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ReadingWriter{
		ctx:       ctx,
		db:        s.db,
		runID:     pgUUID(runID),
		batchSize: batchSize,
		buf:       make([]nem12.MeterReading, 0, batchSize),
	}
}

// OpenReadings is NewReadingWriter behind the BatchSink interface.
func (s *Store) OpenReadings(ctx context.Context, runID uuid.UUID, batchSize int) BatchSink {
	return s.NewReadingWriter(ctx, runID, batchSize)
}

// Accept implements nem12.ReadingSink.
func (w *ReadingWriter) Accept(r nem12.MeterReading) {
	if w.err != nil {
		return
	}
	w.accepted++
	w.buf = append(w.buf, r)
	if len(w.buf) >= w.batchSize {
		w.err = w.flush()
	}
}

// Flush writes any buffered readings.
func (w *ReadingWriter) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.flush()
	return w.err
}

// Close flushes the remaining readings and returns the first error seen.
func (w *ReadingWriter) Close() error {
	return w.Flush()
}

// Accepted is the number of readings handed to the writer.
func (w *ReadingWriter) Accepted() int64 { return w.accepted }

// Inserted is the number of rows actually written.
func (w *ReadingWriter) Inserted() int64 { return w.inserted }

// Err returns the latched flush error, if any.
func (w *ReadingWriter) Err() error { return w.err }

func (w *ReadingWriter) flush() error {
	if len(w.buf) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range w.buf {
		batch.Queue(insertReadingSQL, pgUUID(uuid.New()), r.NMI, r.Timestamp, r.Consumption, w.runID)
	}

	results := w.db.SendBatch(w.ctx, batch)
	var inserted int64
	for i := range w.buf {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return fmt.Errorf("insert reading %d of batch (nmi %s): %w", i+1, w.buf[i].NMI, err)
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close reading batch: %w", err)
	}

	w.inserted += inserted
	w.buf = w.buf[:0]
	return nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
