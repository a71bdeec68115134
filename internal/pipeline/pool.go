package pipeline

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when the task queue has no room. Callers treat a
// full queue like a failed stage: the work is resubmitted on a later
// ingestion pass.
var ErrQueueFull = errors.New("pipeline queue is full")

// ErrPoolClosed is returned when submitting after shutdown started.
var ErrPoolClosed = errors.New("pipeline pool is closed")

type task struct {
	name string
	run  func(ctx context.Context)
}

// Pool is the bounded worker pool every background pipeline unit runs on:
// stage 1, stage 2, and reply pre-generation. Submission never blocks the
// caller; ordering between tasks for different message ids is not defined.
type Pool struct {
	workers int
	tasks   chan task
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewPool(workers, queueSize int, logger *zap.Logger) *Pool {
	return &Pool{
		workers: workers,
		tasks:   make(chan task, queueSize),
		logger:  logger,
	}
}

// Start launches the workers. Tasks receive ctx; cancelling it tells
// long-running stage work to abandon external calls.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for t := range p.tasks {
		p.runTask(ctx, t)
	}
}

func (p *Pool) runTask(ctx context.Context, t task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline task panicked",
				zap.String("task", t.name),
				zap.Any("panic", r),
			)
		}
	}()
	t.run(ctx)
}

// Submit enqueues a unit of background work without blocking.
func (p *Pool) Submit(name string, run func(ctx context.Context)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task{name: name, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting work and drains the queue. Returns early with
// the context error if draining outlives ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
