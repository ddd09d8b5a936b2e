package pool

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// InvalidSizeError is returned by Build when the requested pool size is
// not positive.
type InvalidSizeError struct {
	Size int
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("pool: size must be greater than 0, got %d", e.Size)
}

// WorkerPool runs jobs on a fixed number of persistent workers sharing
// one queue. Construction spawns the workers; there is no separate start
// phase. Jobs are claimed in submission order and each job runs on
// exactly one worker.
type WorkerPool struct {
	// queue shared by all workers; the pool holds the producing side
	queue *jobQueue

	// workers, indexed by id
	workers []*Worker

	// ensure the pool can only be stopped once
	stop sync.Once

	log *slog.Logger
}

// An Option configures a pool at construction.
type Option func(*WorkerPool)

// WithLogger sets the logger used for worker lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(p *WorkerPool) { p.log = log }
}

// New creates a pool of n workers.
//
// New panics if n is not positive: a bad size is a programming error,
// not a runtime condition. Use Build to get an error value instead.
func New(n int, opts ...Option) *WorkerPool {
	p, err := Build(n, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Build creates a pool of n workers, returning an *InvalidSizeError if n
// is not positive.
func Build(n int, opts ...Option) (*WorkerPool, error) {
	if n <= 0 {
		return nil, &InvalidSizeError{Size: n}
	}

	p := &WorkerPool{
		queue:   newJobQueue(),
		workers: make([]*Worker, n),
		log:     slog.New(slog.NewTextHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.log.Info(fmt.Sprintf("starting worker pool with %d workers", n))

	for i := 0; i < n; i++ {
		w := newWorker(i, p.queue, p.log)
		p.workers[i] = w
		go w.start()
	}

	return p, nil
}

// Submit enqueues job for execution. It returns as soon as the job is
// queued: it never waits for a worker to become free, and never waits
// for the job to run. Submit is safe to call from any number of
// goroutines concurrently.
//
// Submit must not be called once Stop has begun; doing so panics.
func (p *WorkerPool) Submit(job Job) {
	p.queue.push(job)
}

// Stop shuts the pool down in two phases: it closes the queue so no new
// jobs can be submitted, then joins every worker in ascending id order.
// Jobs already queued are still delivered and run before their worker
// exits, so Stop blocks until every submitted job has completed.
//
// Stop is idempotent; calls after the first return immediately.
func (p *WorkerPool) Stop() {
	p.stop.Do(func() {
		p.log.Info("stopping worker pool")

		// close the producing side; queued jobs remain deliverable
		p.queue.close()

		for _, w := range p.workers {
			p.log.Info(fmt.Sprintf("shutting down worker %d", w.id))
			w.join()
		}

		p.log.Info("worker pool has been stopped")
	})
}

// Size reports the number of workers the pool was built with.
func (p *WorkerPool) Size() int {
	return len(p.workers)
}
