package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/nem12ingest/internal/logging"
	"github.com/JonMunkholm/nem12ingest/internal/nem12"
	"github.com/JonMunkholm/nem12ingest/internal/store"
)

// IngestFile ingests the file at path. Events carry the file's base name.
func (s *Service) IngestFile(ctx context.Context, path string) (*IngestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return s.IngestStream(ctx, filepath.Base(path), f, info.Size())
}

// IngestStream parses r as fileName and stores its readings in one pass.
// size is the expected length in bytes, or -1 when unknown.
//
// It blocks for an ingest slot, then records a run that ends completed, or
// failed on a structural, read or database error. A non-nil result is
// returned whenever a run was created, including on failure.
func (s *Service) IngestStream(ctx context.Context, fileName string, r io.Reader, size int64) (*IngestResult, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}

	def, err := ForFile(fileName)
	if err != nil {
		return nil, err
	}
	if limit := s.cfg.Ingest.MaxFileSize; limit > 0 && size > limit {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, limit)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if timeout := s.cfg.Ingest.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	run, err := s.store.CreateRun(ctx, store.NewRun{FileName: fileName, Format: def.Key})
	if err != nil {
		return nil, err
	}

	ctx = logging.ContextWithRunID(ctx, run.ID.String())
	logger := logging.WithFields(ctx, "file", fileName, "format", def.Key)
	logger.Info("ingest started", "size_bytes", size)
	start := time.Now()

	readings := s.store.OpenReadings(ctx, run.ID, s.cfg.Ingest.BatchSize)
	counter := &errorCounter{}
	input := newIngestReader(ctx, r, s.cfg.Ingest.MaxFileSize)

	parser := def.NewParser(s.cfg.Parser, logger)
	audit, parseErr := parser.Parse(fileName, input, nem12.Sinks{
		Readings: readings,
		Errors:   s.errorSinks(ctx, run.ID, logger, counter),
		Audit: nem12.AuditFunc(func(a nem12.AuditRecord) {
			logger.Info(a.String())
		}),
	})
	flushErr := readings.Close()

	result := &IngestResult{
		RunID:        run.ID,
		FileName:     fileName,
		Format:       def.Key,
		Audit:        audit,
		RowsEmitted:  readings.Accepted(),
		RowsInserted: readings.Inserted(),
		ErrorCount:   counter.Load(),
		FileHash:     input.Hash(),
	}
	totals := store.RunResult{
		RowsEmitted:  result.RowsEmitted,
		RowsInserted: result.RowsInserted,
		ErrorCount:   result.ErrorCount,
		FileHash:     result.FileHash,
	}

	if failure := errors.Join(parseErr, flushErr); failure != nil {
		result.Status = store.RunFailed
		result.Error = failure.Error()
		// ctx may be the reason for the failure; the run still has to be closed.
		if err := s.store.FailRun(context.WithoutCancel(ctx), run.ID, totals, failure.Error()); err != nil {
			logger.Error("failed to record run failure", "error", err)
		}
		logger.Warn("ingest failed",
			"error", failure,
			"rows_inserted", result.RowsInserted,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return result, fmt.Errorf("ingest %s: %w", fileName, failure)
	}

	if err := s.store.FinishRun(ctx, run.ID, totals); err != nil {
		return result, err
	}
	result.Status = store.RunCompleted

	logger.Info("ingest completed",
		"rows_emitted", result.RowsEmitted,
		"rows_inserted", result.RowsInserted,
		"errors", result.ErrorCount,
		"bytes", input.BytesRead(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// ParseOnly runs the parser over r without touching the database.
func (s *Service) ParseOnly(ctx context.Context, fileName string, r io.Reader, sinks nem12.Sinks) (nem12.AuditRecord, error) {
	def, err := ForFile(fileName)
	if err != nil {
		return nem12.AuditRecord{}, err
	}
	parser := def.NewParser(s.cfg.Parser, s.logger)
	return parser.Parse(fileName, newIngestReader(ctx, r, 0), sinks)
}

// errorSinks fans one event out to the counter, the log, the run's error
// table and the CSV error log.
func (s *Service) errorSinks(ctx context.Context, runID uuid.UUID, logger *slog.Logger, counter *errorCounter) nem12.ErrorSink {
	sinks := []nem12.ErrorSink{
		counter,
		nem12.ErrorFunc(func(ev nem12.ErrorEvent) error {
			logger.Warn("record rejected",
				"line", ev.Line,
				"record_type", ev.RecordType,
				"kind", ev.Kind.String(),
				"reason", ev.Reason,
			)
			return nil
		}),
		nem12.ErrorFunc(func(ev nem12.ErrorEvent) error {
			return s.store.InsertError(ctx, runID, ev)
		}),
	}
	if s.errorLog != nil {
		sinks = append(sinks, s.errorLog)
	}
	return nem12.MultiErrorSink(sinks...)
}

type errorCounter struct {
	atomic.Int64
}

func (c *errorCounter) Record(nem12.ErrorEvent) error {
	c.Add(1)
	return nil
}
