package pool

// A Job is a single unit of work handed to the pool.
//
// Run is called exactly once, on exactly one worker, and is expected to
// capture all the state it needs. It takes no arguments and returns
// nothing; a Job that needs to surface a result writes it somewhere the
// caller can see.
type Job interface {
	Run()
}

// The JobFunc type is an adapter to allow the use of
// ordinary functions as a Job. If f is a function
// with the appropriate signature, JobFunc(f) is a
// Job that calls f.
type JobFunc func()

// Run calls fn()
func (fn JobFunc) Run() { fn() }
