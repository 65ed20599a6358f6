package core

// run_limiter.go keeps export runs from overlapping.
//
// A run holds one database connection and writes into a shared output
// directory, so only one run may be active at a time. The limiter is a
// semaphore of size one: a caller either gets the slot within maxWait or
// receives ErrRunInProgress. WaitForDrain supports graceful shutdown.

import (
	"context"
	"sync"
	"time"
)

// RunLimiter admits at most one pipeline run at a time.
type RunLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewRunLimiter creates a limiter. A maxWait of zero makes Acquire fail
// immediately when a run is active.
func NewRunLimiter(maxWait time.Duration) *RunLimiter {
	if maxWait < 0 {
		maxWait = 0
	}
	return &RunLimiter{
		semaphore: make(chan struct{}, 1),
		maxWait:   maxWait,
	}
}

// Acquire takes the run slot, waiting up to maxWait.
// The caller MUST call Release when the run completes (use defer).
func (l *RunLimiter) Acquire(ctx context.Context) error {
	if l.TryAcquire() {
		return nil
	}
	if l.maxWait == 0 {
		return ErrRunInProgress
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Check if original context was cancelled vs timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrRunInProgress
	}
}

// TryAcquire takes the run slot without blocking.
func (l *RunLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release frees the run slot.
// Must be called exactly once for each successful Acquire/TryAcquire.
func (l *RunLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// Active reports whether a run currently holds the slot.
func (l *RunLimiter) Active() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active > 0
}

// WaitForDrain blocks until the active run completes or ctx is cancelled.
func (l *RunLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !l.Active() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
