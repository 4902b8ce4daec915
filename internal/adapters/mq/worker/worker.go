// Package worker defines the workers that drain the sync queue for
// approved cases.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/telcobench/transit/internal/adapters/mq/queue"
	"github.com/telcobench/transit/internal/domain/syncer"
	"github.com/telcobench/transit/pkg/logger"
	"github.com/telcobench/transit/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultMaxAttempts    = 3
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// CaseSyncer performs the sync and terminal disposition for one approved case.
type CaseSyncer interface {
	ProcessSync(ctx context.Context, caseID string) error
}

// Queue defines how workers receive tasks.
type Queue interface {
	Enqueue(ctx context.Context, t queue.Task) bool
	Dequeue(ctx context.Context) <-chan queue.Task
}

// Worker processes sync tasks until stopped.
type Worker struct {
	queue       Queue
	cases       CaseSyncer
	name        string
	maxAttempts int

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewWorker creates a new worker with configuration options.
func NewWorker(q Queue, cases CaseSyncer, opts ...Option) *Worker {
	w := &Worker{
		queue:       q,
		cases:       cases,
		name:        "worker",
		maxAttempts: defaultMaxAttempts,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	taskChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case task, ok := <-taskChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}
			if err := w.processTask(ctx, task); err != nil {
				w.logger.Error(ctx, "error processing sync task",
					logger.String("caseID", task.CaseID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processTask handles a single sync task. Transient failures are
// re-enqueued up to the bounded attempt count; a sync conflict is never
// retried here because resolving it is a manual operation.
func (w *Worker) processTask(ctx context.Context, task queue.Task) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	err := w.cases.ProcessSync(ctx, task.CaseID)
	if err == nil {
		return nil
	}

	if errors.Is(err, syncer.ErrSyncConflict) {
		metrics.RecordWorkerError()
		return fmt.Errorf("case %s needs manual reconciliation: %w", task.CaseID, err)
	}

	if task.Attempt+1 < w.maxAttempts {
		if ok := w.queue.Enqueue(ctx, queue.Task{CaseID: task.CaseID, Attempt: task.Attempt + 1}); ok {
			w.logger.Warn(ctx, "sync failed; task re-enqueued",
				logger.String("caseID", task.CaseID),
				logger.Int("attempt", task.Attempt+1),
				logger.Error(err),
			)
			return nil
		}
	}

	metrics.RecordWorkerError()
	return fmt.Errorf("sync failed for case %s after %d attempts: %w", task.CaseID, task.Attempt+1, err)
}

// Pool manages multiple workers.
type Pool struct {
	workers []*Worker
	queue   Queue

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, cases CaseSyncer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	pool := &Pool{
		workers:  make([]*Worker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewWorker(q, cases, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
		_ = w.Shutdown(ctx)
		cancel()
	}
}

// Shutdown closes the queue and waits for the workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
