// Package jobs provides the in-memory work queue behind asynchronous report
// rendering. Jobs live only for the process lifetime; a report lost to a
// restart is simply requested again.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of background work.
type Job struct {
	ID      string
	Type    string
	Payload interface{}
}

// Handler processes a single job. A non-nil error triggers a retry until the
// attempt budget runs out.
type Handler func(context.Context, Job) error

// QueueConfig sizes the worker pool.
type QueueConfig struct {
	Workers    int
	MaxRetries int
	Logger     *zap.Logger
}

// retryDelay spaces retries out; a render fails almost exclusively because
// the patient list could not be fetched, and hammering does not help.
const retryDelay = time.Second

type attempt struct {
	job   Job
	tries int
}

// Queue fans jobs out to a fixed pool of goroutines.
type Queue struct {
	name       string
	handler    Handler
	workers    int
	maxRetries int
	logger     *zap.Logger

	work chan attempt

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewQueue builds a stopped queue; call Start before Enqueue.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		logger:     cfg.Logger.With(zap.String("queue", name)),
		work:       make(chan attempt, cfg.Workers*4),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.workers))
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped")
}

// Enqueue submits a job, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	started, ctx := q.started, q.ctx
	q.mu.Unlock()
	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	return q.submit(ctx, attempt{job: job})
}

func (q *Queue) submit(ctx context.Context, a attempt) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.work <- a:
		return nil
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case a := <-q.work:
			if err := q.handler(q.ctx, a.job); err != nil {
				q.retry(a, err)
			}
		}
	}
}

func (q *Queue) retry(a attempt, err error) {
	a.tries++
	if a.tries > q.maxRetries {
		q.logger.Error("job exhausted its retries",
			zap.String("jobId", a.job.ID), zap.String("type", a.job.Type), zap.Error(err))
		return
	}
	q.logger.Warn("job failed, will retry",
		zap.String("jobId", a.job.ID), zap.Int("attempt", a.tries), zap.Error(err))

	go func() {
		timer := time.NewTimer(retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.submit(q.ctx, a); err != nil {
				q.logger.Error("requeue failed", zap.String("jobId", a.job.ID), zap.Error(err))
			}
		}
	}()
}
