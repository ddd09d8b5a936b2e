package pool

import (
	"container/list"
	"sync"
)

// jobQueue is the hand-off between submitters and workers: an unbounded
// FIFO guarded by a single mutex. A worker holds the lock only for the
// duration of one claim, never while a job runs, so a slow job does not
// serialize the other workers' claims.
type jobQueue struct {
	mu     sync.Mutex
	ready  *sync.Cond
	jobs   *list.List
	closed bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{jobs: list.New()}
	q.ready = sync.NewCond(&q.mu)
	return q
}

// push appends a job to the tail. It never waits for a consumer.
// Pushing on a closed queue is a caller bug and panics.
func (q *jobQueue) push(j Job) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		panic("pool: submit on stopped pool")
	}

	q.jobs.PushBack(j)
	q.ready.Signal()
}

// claim removes and returns the oldest job, blocking while the queue is
// empty and still open. ok is false once the queue is closed and drained,
// which is the worker's signal to shut down.
func (q *jobQueue) claim() (j Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.jobs.Len() == 0 && !q.closed {
		q.ready.Wait()
	}

	front := q.jobs.Front()
	if front == nil {
		return nil, false
	}

	q.jobs.Remove(front)
	return front.Value.(Job), true
}

// close refuses further pushes. Jobs already queued stay claimable.
// Safe to call more than once.
func (q *jobQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.ready.Broadcast()
}
