package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// TaskFunc is a unit of background work.
type TaskFunc func(ctx context.Context) error

// RunnerStats counts detached task outcomes since startup.
type RunnerStats struct {
	Started   int64 `json:"started"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Panicked  int64 `json:"panicked"`
}

// DetachedRunner launches work that must outlive the request that triggered it.
// Tasks get their own timeout context; failures and panics are logged, never returned.
type DetachedRunner struct {
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup

	base   context.Context
	cancel context.CancelFunc

	started, succeeded, failed, panicked atomic.Int64
}

// NewDetachedRunner creates a runner whose tasks are cancelled after timeout.
func NewDetachedRunner(timeout time.Duration, log *zap.Logger) *DetachedRunner {
	if timeout <= 0 {
		timeout = time.Minute
	}
	base, cancel := context.WithCancel(context.Background())
	return &DetachedRunner{timeout: timeout, log: log.Named("detached"), base: base, cancel: cancel}
}

// Go starts fn in the background. The caller never observes its result.
func (r *DetachedRunner) Go(name string, fn TaskFunc, fields ...zap.Field) {
	r.wg.Add(1)
	r.started.Add(1)

	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(r.base, r.timeout)
		defer cancel()

		start := time.Now()
		err := r.run(ctx, fn)
		fields = append(fields, zap.String("task", name), zap.Duration("duration", time.Since(start)))

		if err != nil {
			r.failed.Add(1)
			r.log.Error("detached task failed", append(fields, zap.Error(err))...)
			return
		}
		r.succeeded.Add(1)
		r.log.Debug("detached task finished", fields...)
	}()
}

func (r *DetachedRunner) run(ctx context.Context, fn TaskFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.panicked.Add(1)
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(ctx)
}

// Wait blocks until every launched task has finished or ctx is done.
func (r *DetachedRunner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel cancels the context of every running and future task.
// Use it for long jobs that should not hold up shutdown; follow with Wait.
func (r *DetachedRunner) Cancel() {
	r.cancel()
}

// Stats returns a snapshot of the outcome counters.
func (r *DetachedRunner) Stats() RunnerStats {
	return RunnerStats{
		Started:   r.started.Load(),
		Succeeded: r.succeeded.Load(),
		Failed:    r.failed.Load(),
		Panicked:  r.panicked.Load(),
	}
}
