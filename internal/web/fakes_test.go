package web

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/nem12ingest/internal/nem12"
	"github.com/JonMunkholm/nem12ingest/internal/store"
)

// fakeStore keeps runs, events and readings in memory.
type fakeStore struct {
	mu       sync.Mutex
	runs     []store.Run
	events   map[uuid.UUID][]store.ErrorRow
	readings map[string]bool
	pingErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: map[uuid.UUID][]store.ErrorRow{}, readings: map[string]bool{}}
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) CreateRun(_ context.Context, nr store.NewRun) (store.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := store.Run{ID: uuid.New(), FileName: nr.FileName, Format: nr.Format, Status: store.RunRunning, StartedAt: time.Now()}
	f.runs = append(f.runs, run)
	return run, nil
}

func (f *fakeStore) update(id uuid.UUID, fn func(*store.Run)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.runs {
		if f.runs[i].ID == id {
			fn(&f.runs[i])
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) FinishRun(_ context.Context, id uuid.UUID, res store.RunResult) error {
	return f.update(id, func(r *store.Run) {
		r.Status = store.RunCompleted
		r.RowsEmitted, r.RowsInserted, r.ErrorCount, r.FileHash = res.RowsEmitted, res.RowsInserted, res.ErrorCount, res.FileHash
	})
}

func (f *fakeStore) FailRun(_ context.Context, id uuid.UUID, res store.RunResult, msg string) error {
	return f.update(id, func(r *store.Run) {
		r.Status = store.RunFailed
		r.RowsEmitted, r.RowsInserted, r.ErrorCount = res.RowsEmitted, res.RowsInserted, res.ErrorCount
		r.ErrorMessage = msg
	})
}

func (f *fakeStore) GetRun(_ context.Context, id uuid.UUID) (store.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return store.Run{}, store.ErrNotFound
}

func (f *fakeStore) ListRuns(_ context.Context, limit, offset int) ([]store.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Run
	for i := len(f.runs) - 1; i >= 0; i-- {
		out = append(out, f.runs[i])
	}
	return page(out, limit, offset), nil
}

func (f *fakeStore) RunExistsForHash(context.Context, string) (bool, error) { return false, nil }

func (f *fakeStore) InsertError(_ context.Context, runID uuid.UUID, ev nem12.ErrorEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[runID] = append(f.events[runID], store.ErrorRow{
		RunID: runID, Line: ev.Line, RecordType: ev.RecordType, Kind: ev.Kind.String(), Reason: ev.Reason,
	})
	return nil
}

func (f *fakeStore) ListErrors(_ context.Context, runID uuid.UUID, limit, offset int) ([]store.ErrorRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return page(append([]store.ErrorRow(nil), f.events[runID]...), limit, offset), nil
}

func (f *fakeStore) OpenReadings(context.Context, uuid.UUID, int) store.BatchSink {
	return &fakeBatch{store: f}
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type fakeBatch struct {
	store              *fakeStore
	accepted, inserted int64
}

func (b *fakeBatch) Accept(r nem12.MeterReading) {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	b.accepted++
	key := r.NMI + r.Timestamp.String()
	if !b.store.readings[key] {
		b.store.readings[key] = true
		b.inserted++
	}
}

func (b *fakeBatch) Close() error    { return nil }
func (b *fakeBatch) Accepted() int64 { return b.accepted }
func (b *fakeBatch) Inserted() int64 { return b.inserted }
