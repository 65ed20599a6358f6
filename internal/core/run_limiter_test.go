package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunLimiter_AcquireRelease(t *testing.T) {
	limiter := NewRunLimiter(0)
	ctx := context.Background()

	if limiter.Active() {
		t.Error("new limiter should be idle")
	}

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !limiter.Active() {
		t.Error("Active() = false after Acquire")
	}

	// Second run is refused immediately
	if err := limiter.Acquire(ctx); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("second Acquire = %v, want ErrRunInProgress", err)
	}

	limiter.Release()
	if limiter.Active() {
		t.Error("Active() = true after Release")
	}

	if !limiter.TryAcquire() {
		t.Error("TryAcquire should succeed after Release")
	}
	limiter.Release()
}

func TestRunLimiter_WaitsUpToMaxWait(t *testing.T) {
	limiter := NewRunLimiter(100 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	start := time.Now()
	err := limiter.Acquire(ctx)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrRunInProgress) {
		t.Errorf("expected ErrRunInProgress, got %v", err)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("timeout too fast: %v", elapsed)
	}

	limiter.Release()
}

func TestRunLimiter_AcquireAfterRelease(t *testing.T) {
	limiter := NewRunLimiter(time.Second)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		limiter.Release()
	}()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("waiting Acquire failed: %v", err)
	}
	limiter.Release()
}

func TestRunLimiter_ContextCancelled(t *testing.T) {
	limiter := NewRunLimiter(time.Second)
	if !limiter.TryAcquire() {
		t.Fatal("TryAcquire failed")
	}
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire = %v, want context.Canceled", err)
	}
}

func TestRunLimiter_OneAtATime(t *testing.T) {
	limiter := NewRunLimiter(time.Second)

	var wg sync.WaitGroup
	var current, maxObserved atomic.Int32

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer limiter.Release()

			n := current.Add(1)
			for {
				m := maxObserved.Load()
				if n <= m || maxObserved.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
		}()
	}
	wg.Wait()

	if got := maxObserved.Load(); got != 1 {
		t.Errorf("max concurrent runs = %d, want 1", got)
	}
}

func TestRunLimiter_WaitForDrain(t *testing.T) {
	limiter := NewRunLimiter(0)
	if err := limiter.WaitForDrain(context.Background()); err != nil {
		t.Errorf("WaitForDrain on idle limiter = %v", err)
	}

	limiter.TryAcquire()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := limiter.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain = %v, want DeadlineExceeded", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		limiter.Release()
	}()
	if err := limiter.WaitForDrain(context.Background()); err != nil {
		t.Errorf("WaitForDrain after release = %v", err)
	}
}
