// Package gopool pairs the fixed-size worker pool in pool/ with a
// durable SQLite task journal: tasks are enqueued to the journal,
// claimed in order by a Runner, and executed on the pool by the
// handler registered for their type.
package gopool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jirevwe/gopool/packer"
	"github.com/jirevwe/gopool/pool"
)

type Config struct {
	// Workers is the number of workers in the pool; defaults to 10
	Workers int

	// DBPath is the SQLite file backing the task journal
	DBPath string

	// PollInterval is how long the runner sleeps when the journal has
	// no pending tasks; defaults to 10ms
	PollInterval time.Duration

	Mux    *Mux
	Clock  Clock
	Logger *slog.Logger
}

// Runner drains the task journal into the worker pool.
type Runner struct {
	store        *Store
	mux          *Mux
	workerPool   pool.Pool
	pollInterval time.Duration
	logger       *slog.Logger
}

func NewRunner(cfg *Config) (*Runner, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}

	if cfg.Mux == nil {
		cfg.Mux = NewMux()
	}

	if cfg.Clock == nil {
		cfg.Clock = NewRealClock()
	}

	if cfg.Workers == 0 {
		cfg.Workers = 10
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Millisecond
	}

	workerPool, err := pool.Build(cfg.Workers, pool.WithLogger(cfg.Logger))
	if err != nil {
		return nil, err
	}

	store, err := NewStore(cfg.DBPath, cfg.Clock, cfg.Logger)
	if err != nil {
		// the pool is already running; don't leak its workers
		workerPool.Stop()
		return nil, err
	}

	return &Runner{
		store:        store,
		mux:          cfg.Mux,
		workerPool:   workerPool,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}, nil
}

// Handle registers a handler for the given task type.
func (r *Runner) Handle(taskType string, h Handler) {
	r.mux.Handle(taskType, h)
}

// Enqueue encodes payload with msgpack and writes a pending task to the
// journal, returning its id. Handlers decode the payload with
// packer.DecodeMessage.
func (r *Runner) Enqueue(ctx context.Context, taskType string, payload any) (string, error) {
	raw, err := packer.EncodeMessage(payload)
	if err != nil {
		return "", err
	}

	task := NewTask(taskType, raw)
	if err = r.store.Enqueue(ctx, task); err != nil {
		return "", err
	}

	return task.Id, nil
}

// Run claims pending tasks from the journal and submits them to the
// pool until ctx is cancelled. Cancel ctx and wait for Run to return
// before calling Close.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		task, err := r.store.Claim(ctx)
		if err != nil {
			if !errors.Is(err, ErrNoPendingTasks) {
				r.logger.Error(err.Error(), "func", "store.Claim")
			}

			// nothing to work on, sleep then try again
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.pollInterval):
			}
			continue
		}

		r.submit(task)
	}
}

// submit wraps the claimed task in a pool job that dispatches it
// through the mux and records the terminal status.
func (r *Runner) submit(task Task) {
	r.workerPool.Submit(pool.JobFunc(func() {
		status := TaskDone
		if err := r.mux.ProcessTask(context.Background(), &task); err != nil {
			r.logger.Error(fmt.Sprintf("task %s failed: %s", task.Id, err.Error()))
			status = TaskFailed
		}

		if err := r.store.Mark(context.Background(), task.Id, status); err != nil {
			r.logger.Error(err.Error(), "func", "store.Mark")
		}
	}))
}

// Close stops the pool, waiting for every submitted task to finish,
// then closes the journal. Run must have returned before Close is
// called.
func (r *Runner) Close() error {
	r.workerPool.Stop()
	return r.store.Close()
}
