// Package pool provides a fixed-size worker pool: n persistent workers
// claiming jobs from one shared FIFO queue.
package pool

type Pool interface {
	// Submit hands a job to the pool. It is only valid before Stop()
	// has been called.
	Submit(Job)

	// Stop closes the pool to new work, waits for every queued job to
	// finish, and joins all workers. It should only be called once;
	// later calls are no-ops.
	Stop()

	// Size reports the number of workers the pool was built with.
	Size() int
}
