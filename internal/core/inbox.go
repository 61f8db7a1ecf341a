package core

// inbox.go ingests files dropped into a directory.
//
// Each pass ingests every file with a registered extension, one at a time.
// Files whose content already completed a run are skipped. Ingested and
// skipped files are moved to the processed directory so the next pass does
// not see them. Files rejected for their content (structural errors, over
// the size limit) are moved to the failed directory next to it. Any other
// failure leaves the file in place to be retried on the next pass.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/JonMunkholm/nem12ingest/internal/nem12"
)

// WatchConfig configures StartInboxWatcher.
type WatchConfig struct {
	Dir          string        // Directory to scan
	PollInterval time.Duration // How often to scan (default: 1m)
}

// StartInboxWatcher scans cfg.Dir immediately, then every PollInterval,
// until ctx is cancelled. It is meant to run in its own goroutine.
func (s *Service) StartInboxWatcher(ctx context.Context, cfg WatchConfig) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}

	slog.Info("inbox watcher started",
		"dir", cfg.Dir,
		"processed_dir", s.processedDir(cfg.Dir),
		"failed_dir", failedDir(s.processedDir(cfg.Dir)),
		"poll_interval", cfg.PollInterval,
	)

	s.runInboxPass(ctx, cfg.Dir)

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("inbox watcher stopped")
			return
		case <-ticker.C:
			s.runInboxPass(ctx, cfg.Dir)
		}
	}
}

func (s *Service) runInboxPass(ctx context.Context, dir string) {
	start := time.Now()
	res, err := s.IngestDir(ctx, dir)
	if err != nil {
		slog.Error("inbox pass failed", "dir", dir, "error", err)
		return
	}
	if len(res.Ingested)+len(res.Skipped)+len(res.Failed) == 0 {
		slog.Debug("inbox empty", "dir", dir)
		return
	}
	slog.Info("inbox pass completed",
		"ingested", len(res.Ingested),
		"skipped", len(res.Skipped),
		"failed", len(res.Failed),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// IngestDir ingests every file in dir with a registered extension, in name
// order. Subdirectories are not descended into.
func (s *Service) IngestDir(ctx context.Context, dir string) (*DirResult, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	processed := s.processedDir(dir)
	res := &DirResult{}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if _, err := ForFile(entry.Name()); err != nil {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		logger := slog.With("file", path)

		hash, err := FileHash(path)
		if err != nil {
			logger.Error("hash failed", "error", err)
			res.Failed = append(res.Failed, FileFailure{Path: path, Error: err.Error()})
			continue
		}

		seen, err := s.store.RunExistsForHash(ctx, hash)
		if err != nil {
			return res, err
		}
		if seen {
			logger.Info("skipping already ingested file", "hash", hash)
			res.Skipped = append(res.Skipped, path)
			moveFile(path, processed)
			continue
		}

		result, err := s.IngestFile(ctx, path)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return res, err
			}
			failure := FileFailure{Path: path, Error: err.Error()}
			if isContentFailure(err) {
				failure.MovedTo = moveFile(path, failedDir(processed))
			}
			logger.Warn("inbox file failed", "error", err, "moved_to", failure.MovedTo)
			res.Failed = append(res.Failed, failure)
			continue
		}
		res.Ingested = append(res.Ingested, result)
		moveFile(path, processed)
	}

	return res, nil
}

func (s *Service) processedDir(inbox string) string {
	cfg := s.cfg.Ingest
	cfg.InboxDir = inbox
	return cfg.ProcessedPath()
}

// failedDir is the sibling of the processed directory receiving files
// that can never ingest.
func failedDir(processed string) string {
	return filepath.Join(filepath.Dir(processed), "failed")
}

// isContentFailure reports whether err depends only on the file content,
// so another attempt would fail the same way.
func isContentFailure(err error) bool {
	return errors.Is(err, nem12.ErrStructural) || errors.Is(err, ErrFileTooLarge)
}

// moveFile renames path into dir and returns the new path, or "" if the
// move failed. A failure is logged; the content hash keeps a processed file
// from being ingested twice.
func moveFile(path, dir string) string {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("create inbox dir", "dir", dir, "error", err)
		return ""
	}
	dest := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(dest); err == nil {
		dest = filepath.Join(dir, fmt.Sprintf("%s.%d", filepath.Base(path), time.Now().UnixNano()))
	}
	if err := os.Rename(path, dest); err != nil {
		slog.Error("move inbox file", "file", path, "error", err)
		return ""
	}
	return dest
}
