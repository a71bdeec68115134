package export

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner drives the synchronizer on a fixed interval for the lifetime of
// the process. Passes never overlap: if one is still running when the tick
// fires, the tick is skipped.
type Runner struct {
	syncer   *Syncer
	interval time.Duration
	logger   *zap.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewRunner(syncer *Syncer, interval time.Duration, logger *zap.Logger) *Runner {
	return &Runner{
		syncer:   syncer,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the periodic loop. The first pass runs immediately.
func (r *Runner) Start(ctx context.Context) {
	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.runOnce(ctx)
		for {
			select {
			case <-ticker.C:
				r.runOnce(ctx)
			case <-r.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight pass to finish.
func (r *Runner) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Runner) runOnce(ctx context.Context) {
	if !r.mu.TryLock() {
		r.logger.Debug("sync pass still running, skipping tick")
		return
	}
	defer r.mu.Unlock()

	if _, err := r.syncer.Sync(ctx); err != nil {
		r.logger.Error("sync pass failed", zap.Error(err))
	}
}
