package core

// limiter.go bounds how many files are ingested at once.
//
// Each ingest holds a slot for the whole parse-and-insert. When every slot is
// taken a caller waits up to maxWait before failing with ErrTooManyIngests.
// WaitForDrain lets shutdown block until in-flight ingests finish.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyIngests is returned when all ingest slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyIngests = errors.New("too many ingests in progress, please try again later")

// Limiter defaults applied when NewIngestLimiter gets non-positive values.
const (
	DefaultMaxConcurrentIngests = 4
	DefaultMaxWaitTime          = 30 * time.Second
)

// IngestLimiter is a counting semaphore with a bounded wait.
type IngestLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
	idle   chan struct{} // closed while active == 0
}

// NewIngestLimiter allows at most maxConcurrent simultaneous ingests.
func NewIngestLimiter(maxConcurrent int, maxWait time.Duration) *IngestLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentIngests
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	idle := make(chan struct{})
	close(idle)
	return &IngestLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		idle:    idle,
	}
}

// Acquire takes a slot, waiting at most maxWait. The caller must Release
// the slot once the ingest ends.
func (l *IngestLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.started()
		return nil
	case <-timer.C:
		return ErrTooManyIngests
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *IngestLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.started()
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *IngestLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
}

func (l *IngestLimiter) started() {
	l.mu.Lock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()
}

// ActiveCount returns the number of ingests holding a slot.
func (l *IngestLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *IngestLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *IngestLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no ingest holds a slot or ctx is done.
func (l *IngestLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterStatus is a snapshot of the limiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for health checks.
func (l *IngestLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.slots),
	}
}
