package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"textembedder/internal/application/common/slogger"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/semaphore"
)

// Scheduler enforces one concurrency budget N for the whole worker.
//
// Unit tasks from every batch run on a single pool of N goroutines, so at
// most N embed/index operations are in flight process-wide. Batch slots are
// a separate weighted semaphore of size N. Pool tasks never block on other
// pool tasks; only batch goroutines submit to the pool.
type Scheduler struct {
	size  int
	pool  *ants.Pool
	slots *semaphore.Weighted
}

// NewScheduler creates a scheduler with budget size.
func NewScheduler(size int) (*Scheduler, error) {
	if size < 1 {
		return nil, fmt.Errorf("scheduler size must be at least 1, got %d", size)
	}

	pool, err := ants.NewPool(size,
		ants.WithPanicHandler(func(p any) {
			slogger.ErrorNoCtx("Recovered panic in unit task", slogger.Fields{"panic": fmt.Sprint(p)})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	return &Scheduler{
		size:  size,
		pool:  pool,
		slots: semaphore.NewWeighted(int64(size)),
	}, nil
}

// Size returns the configured budget.
func (s *Scheduler) Size() int {
	return s.size
}

// AcquireBatch blocks until a batch slot is free or ctx is done.
func (s *Scheduler) AcquireBatch(ctx context.Context) error {
	return s.slots.Acquire(ctx, 1)
}

// ReleaseBatch frees a slot taken with AcquireBatch.
func (s *Scheduler) ReleaseBatch() {
	s.slots.Release(1)
}

// Submit runs task on the shared pool, blocking while all N workers are busy.
func (s *Scheduler) Submit(task func()) error {
	if err := s.pool.Submit(task); err != nil {
		if errors.Is(err, ants.ErrPoolClosed) {
			return fmt.Errorf("scheduler closed: %w", err)
		}
		return err
	}
	return nil
}

// Running returns the number of pool workers currently executing a task.
func (s *Scheduler) Running() int {
	return s.pool.Running()
}

// Close waits up to timeout for running tasks, then releases the pool.
func (s *Scheduler) Close(timeout time.Duration) error {
	if timeout <= 0 {
		s.pool.Release()
		return nil
	}
	return s.pool.ReleaseTimeout(timeout)
}
