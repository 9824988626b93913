// Package worker runs the asynchronous recalculation loop: jobs come off
// the queue, the orchestrator rebuilds the subject's index, and round entry
// never waits on any of it.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fairwaylab/greenside/internal/adapters/mq/queue"
	"github.com/fairwaylab/greenside/pkg/logger"
	"github.com/fairwaylab/greenside/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultPoolSize     = 4
	poolShutdownTimeout = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Recalculator rebuilds and persists one subject's handicap index.
type Recalculator interface {
	Recalculate(ctx context.Context, job Job) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes recalculation jobs until stopped.
type Worker struct {
	queue    Queue
	recalc   Recalculator
	name     string
	shutdown chan struct{}
	done     chan struct{}
	logger   logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(q Queue, recalc Recalculator, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		recalc:   recalc,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop. It returns when the context is canceled, the
// worker is shut down, or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown stops the worker and waits for the in-flight job, if any.
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

func (w *Worker) process(ctx context.Context, job Job) {
	start := time.Now()
	metrics.RecordQueueDequeue()

	err := w.recalc.Recalculate(ctx, job)
	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		// Best-effort by contract: log and move on. The next finalized
		// round re-derives the index from the full history.
		w.logger.Error(ctx, "recalculation failed",
			logger.String("playerID", job.PlayerID),
			logger.String("equipmentSetID", job.EquipmentSetID),
			logger.Error(err),
		)
	}
}

// Pool manages a fixed set of workers draining one queue.
type Pool struct {
	workers []*Worker
	logger  logger.Logger
}

// NewPool creates size workers over the queue and recalculator.
func NewPool(size int, q Queue, recalc Recalculator) *Pool {
	if size <= 0 {
		size = defaultPoolSize
	}
	p := &Pool{logger: logger.Get().Named("workerpool")}
	for i := 0; i < size; i++ {
		p.workers = append(p.workers, NewWorker(q, recalc, WithName("worker-"+strconv.Itoa(i))))
	}
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Stop shuts every worker down, bounded by poolShutdownTimeout.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), poolShutdownTimeout)
	defer cancel()

	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker did not stop cleanly", logger.Error(err))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}
