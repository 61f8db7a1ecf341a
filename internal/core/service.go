package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JonMunkholm/nem12ingest/internal/config"
	"github.com/JonMunkholm/nem12ingest/internal/store"
)

// ErrNoStore is returned by operations that need a database when the
// service was built without one.
var ErrNoStore = errors.New("no database configured")

// Service runs ingests and answers run queries.
type Service struct {
	store    Store
	cfg      *config.Config
	limiter  *IngestLimiter
	errorLog *ErrorLog
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithErrorLog sends every error event to the CSV error log as well.
func WithErrorLog(l *ErrorLog) Option {
	return func(s *Service) { s.errorLog = l }
}

// WithLogger sets the service logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a Service. st may be nil for parse-only use.
func NewService(st Store, cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("core: nil config")
	}

	s := &Service{
		store:   st,
		cfg:     cfg,
		limiter: NewIngestLimiter(cfg.Ingest.MaxConcurrent, cfg.Ingest.MaxWaitTime),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Formats lists the registered file formats.
func (s *Service) Formats() []FormatDefinition { return All() }

// LimiterStatus returns the ingest limiter state.
func (s *Service) LimiterStatus() LimiterStatus { return s.limiter.Status() }

// WaitForIngests blocks until in-flight ingests finish or ctx is done.
func (s *Service) WaitForIngests(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Health checks the database when the store supports it.
func (s *Service) Health(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// ListRuns returns recent runs, newest first.
func (s *Service) ListRuns(ctx context.Context, limit, offset int) ([]store.Run, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.ListRuns(ctx, limit, offset)
}

// GetRun returns one run.
func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (store.Run, error) {
	if s.store == nil {
		return store.Run{}, ErrNoStore
	}
	return s.store.GetRun(ctx, id)
}

// ListRunErrors returns the error events of a run in line order.
func (s *Service) ListRunErrors(ctx context.Context, id uuid.UUID, limit, offset int) ([]store.ErrorRow, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	if _, err := s.store.GetRun(ctx, id); err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	return s.store.ListErrors(ctx, id, limit, offset)
}
