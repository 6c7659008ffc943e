// Package sched provides the fixed-interval trigger that drives background
// work such as sync cycles and attendance uploads.
package sched

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Runner invokes a task at a fixed interval. A tick is skipped when the
// previous invocation is still running, so two invocations of the same task
// never overlap — the single-writer assumption the store layer relies on.
type Runner struct {
	name     string
	interval time.Duration
	task     func(context.Context) error
	logger   *zap.Logger
	cancel   context.CancelFunc
	busy     atomic.Bool
}

// New creates a runner for a named task.
func New(name string, interval time.Duration, task func(context.Context) error, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger,
	}
}

// Start begins ticking in the background.
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	go r.loop(ctx)
}

// Stop stops the runner. A task already in flight runs to completion.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Runner) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunNow(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunNow runs the task immediately unless an invocation is already in flight,
// in which case it reports false and does nothing. Used both by the ticker
// and by explicit triggers (e.g. a user-requested refresh).
func (r *Runner) RunNow(ctx context.Context) bool {
	if !r.busy.CompareAndSwap(false, true) {
		r.logger.Debug("tick skipped, previous run still in flight", zap.String("task", r.name))
		return false
	}
	defer r.busy.Store(false)

	if err := r.task(ctx); err != nil {
		r.logger.Warn("task failed", zap.String("task", r.name), zap.Error(err))
	}
	return true
}
