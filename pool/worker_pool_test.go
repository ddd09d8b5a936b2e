package pool

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)
import (
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain enables goroutine leak detection for all tests in this package,
// which catches workers that outlive Stop.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerPool_SpawnsAllWorkers(t *testing.T) {
	const n = 8

	p := New(n, WithLogger(quietLogger()))

	arrived := make(chan int, n)
	gate := make(chan struct{})

	for i := 0; i < n; i++ {
		i := i
		p.Submit(JobFunc(func() {
			arrived <- i
			<-gate
		}))
	}

	// all n jobs block inside their worker, so n arrivals means n live
	// workers running concurrently
	for i := 0; i < n; i++ {
		select {
		case <-arrived:
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d of %d workers picked up a job", i, n)
		}
	}

	close(gate)
	p.Stop()

	require.Equal(t, n, p.Size())
}

func TestBuild_RejectsNonPositiveSize(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		p, err := Build(n)
		require.Nil(t, p)
		require.Error(t, err)

		var sizeErr *InvalidSizeError
		require.True(t, errors.As(err, &sizeErr))
		require.Equal(t, n, sizeErr.Size)
	}
}

func TestNew_PanicsOnNonPositiveSize(t *testing.T) {
	require.Panics(t, func() { New(0) })
	require.Panics(t, func() { New(-5) })
}

func TestWorkerPool_MultipleStopsDontPanic(t *testing.T) {
	p := New(5, WithLogger(quietLogger()))

	// multiple calls to Stop must not panic or hang
	p.Stop()
	p.Stop()
}

func TestWorkerPool_ExecutesEachJobExactlyOnce(t *testing.T) {
	const k = 200

	p := New(5, WithLogger(quietLogger()))

	var total atomic.Int64
	var perJob [k]atomic.Int64

	for i := 0; i < k; i++ {
		i := i
		p.Submit(JobFunc(func() {
			perJob[i].Add(1)
			total.Add(1)
		}))
	}

	p.Stop()

	require.Equal(t, int64(k), total.Load())
	for i := 0; i < k; i++ {
		require.Equal(t, int64(1), perJob[i].Load(), "job %d ran %d times", i, perJob[i].Load())
	}
}

func TestWorkerPool_ClaimOrderIsSubmissionOrder(t *testing.T) {
	const k = 100

	// a single worker claims one job at a time, so execution order is
	// claim order
	p := New(1, WithLogger(quietLogger()))

	var mu sync.Mutex
	var order []int

	for i := 0; i < k; i++ {
		i := i
		p.Submit(JobFunc(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}

	p.Stop()

	require.Len(t, order, k)
	for i, seq := range order {
		require.Equal(t, i, seq, "job claimed out of submission order")
	}
}

func TestWorkerPool_StopDrainsQueuedJobs(t *testing.T) {
	const k = 20

	p := New(2, WithLogger(quietLogger()))

	var done atomic.Int64
	for i := 0; i < k; i++ {
		p.Submit(JobFunc(func() {
			time.Sleep(5 * time.Millisecond)
			done.Add(1)
		}))
	}

	p.Stop()

	// Stop must not return before every queued job has run
	require.Equal(t, int64(k), done.Load())
}

func TestWorkerPool_SubmitAfterStopPanics(t *testing.T) {
	p := New(2, WithLogger(quietLogger()))
	p.Stop()

	require.Panics(t, func() {
		p.Submit(JobFunc(func() {}))
	})
}

func TestWorkerPool_ConcurrentSubmitters(t *testing.T) {
	const (
		workers    = 4
		submitters = 8
		perEach    = 1250 // 10_000 jobs total
	)

	p := New(workers, WithLogger(quietLogger()))

	var done atomic.Int64
	wg := &sync.WaitGroup{}

	for s := 0; s < submitters; s++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perEach; i++ {
				p.Submit(JobFunc(func() { done.Add(1) }))
			}
		}()
	}

	wg.Wait()
	p.Stop()

	require.Equal(t, int64(submitters*perEach), done.Load())
}

func TestWorkerPool_PanickedJobOnlyKillsItsWorker(t *testing.T) {
	p := New(2, WithLogger(quietLogger()))

	p.Submit(JobFunc(func() { panic("job blew up") }))

	// the surviving worker must keep draining the queue
	var done atomic.Int64
	for i := 0; i < 10; i++ {
		p.Submit(JobFunc(func() { done.Add(1) }))
	}

	// Stop joins the dead worker too; it must not hang
	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		t.Fatal("Stop hung after a job panicked")
	}

	require.Equal(t, int64(10), done.Load())
}
