package pool

import (
	"fmt"
	"log/slog"
)

// Worker is a single persistent worker in the pool.
type Worker struct {
	// the worker id
	id int

	// queue from which the worker claims work
	queue *jobQueue

	// closed when the worker goroutine returns; Stop joins on it
	done chan struct{}

	log *slog.Logger
}

func newWorker(id int, queue *jobQueue, log *slog.Logger) *Worker {
	return &Worker{
		id:    id,
		queue: queue,
		done:  make(chan struct{}),
		log:   log,
	}
}

// start loops claiming and running jobs until the queue is closed and
// drained. It runs on its own goroutine for the life of the pool.
func (w *Worker) start() {
	w.log.Info(fmt.Sprintf("starting worker %d", w.id))

	// A job that panics takes this worker with it: the pool runs on at
	// reduced capacity and the job is neither retried nor its panic
	// masked behind a restart. done must still close so Stop can join.
	defer func() {
		if r := recover(); r != nil {
			w.log.Error(fmt.Sprintf("worker %d died: job panicked: %v", w.id, r))
		}
		close(w.done)
		w.log.Info(fmt.Sprintf("worker %d has been stopped", w.id))
	}()

	for {
		job, ok := w.queue.claim()
		if !ok {
			w.log.Info(fmt.Sprintf("stopping worker %d with closed queue", w.id))
			return
		}

		w.log.Info(fmt.Sprintf("worker %d claimed a job, executing", w.id))

		job.Run()

		w.log.Info(fmt.Sprintf("worker %d finished a job", w.id))
	}
}

// join blocks until the worker goroutine has returned.
func (w *Worker) join() {
	<-w.done
}
