package parallel

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// WorkerPool Creation Tests
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	errs := pool.Run(context.Background(), 1, func(context.Context, int) error { return nil })
	if errs[0] != nil {
		t.Errorf("Run on a new pool = %v", errs[0])
	}
}

func TestWorkerPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewWorkerPool(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want GOMAXPROCS", n, pool.Workers())
		}
		pool.Close()
	}
}

// =============================================================================
// Run Tests
// =============================================================================

func TestWorkerPool_Run(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	errs := pool.Run(context.Background(), 100, func(_ context.Context, i int) error {
		counter.Add(1)
		if i%10 == 3 {
			return fmt.Errorf("job %d", i)
		}
		return nil
	})

	if counter.Load() != 100 {
		t.Errorf("ran %d jobs, want 100", counter.Load())
	}
	for i, err := range errs {
		if (i%10 == 3) != (err != nil) {
			t.Errorf("errs[%d] = %v", i, err)
		}
	}
}

func TestWorkerPool_RunEmpty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	if errs := pool.Run(context.Background(), 0, nil); len(errs) != 0 {
		t.Errorf("len(errs) = %d, want 0", len(errs))
	}
}

func TestWorkerPool_RunCancelled(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Int64
	errs := pool.Run(ctx, 20, func(ctx context.Context, i int) error {
		ran.Add(1)
		if i == 0 {
			cancel()
		}
		return nil
	})

	if ran.Load() == 20 {
		t.Error("every job ran after cancellation")
	}
	skipped := 0
	for _, err := range errs {
		if errors.Is(err, context.Canceled) {
			skipped++
		}
	}
	if skipped+int(ran.Load()) != 20 {
		t.Errorf("ran %d, skipped %d, want 20 in total", ran.Load(), skipped)
	}
}

func TestWorkerPool_RunAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()

	errs := pool.Run(context.Background(), 3, func(context.Context, int) error {
		t.Error("job ran on closed pool")
		return nil
	})
	for i, err := range errs {
		if !errors.Is(err, ErrClosed) {
			t.Errorf("errs[%d] = %v, want ErrClosed", i, err)
		}
	}
}

func TestWorkerPool_RunConcurrentCallers(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var wg sync.WaitGroup
	var total atomic.Int64
	for range 8 {
		wg.Go(func() {
			pool.Run(context.Background(), 50, func(context.Context, int) error {
				total.Add(1)
				return nil
			})
		})
	}
	wg.Wait()

	if total.Load() != 400 {
		t.Errorf("total = %d, want 400", total.Load())
	}
}

func TestWorkerPool_WorkStealing(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	// Every fourth job lands on worker 0 and is slow; the others must not
	// wait behind it.
	start := time.Now()
	pool.Run(context.Background(), 16, func(_ context.Context, i int) error {
		if i%4 == 0 {
			time.Sleep(20 * time.Millisecond)
		}
		return nil
	})
	if d := time.Since(start); d > 2*time.Second {
		t.Errorf("batch took %v", d)
	}
}

// =============================================================================
// Close Tests
// =============================================================================

func TestWorkerPool_CloseIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	var ran atomic.Int64
	pool.Run(context.Background(), 16, func(context.Context, int) error {
		ran.Add(1)
		return nil
	})

	done := make(chan struct{})
	go func() {
		pool.Close()
		pool.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	if ran.Load() != 16 {
		t.Errorf("ran %d jobs, want 16", ran.Load())
	}
}

func TestWorkerPool_NoGoroutineLeak(t *testing.T) {
	before := runtime.NumGoroutine()
	for range 10 {
		pool := NewWorkerPool(4)
		pool.Run(context.Background(), 8, func(context.Context, int) error { return nil })
		pool.Close()
	}

	deadline := time.Now().Add(time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if after := runtime.NumGoroutine(); after > before {
		t.Errorf("goroutines: %d before, %d after", before, after)
	}
}
