package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockResult implements Result
type mockResult struct {
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

// mockJob implements Job
type mockJob struct {
	duration  time.Duration
	shouldErr bool
	executed  *int32 // atomic counter
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{err: errors.New("job error")}
	}
	return &mockResult{err: nil}
}

func TestNewPool(t *testing.T) {
	p1 := NewPool(context.Background(), 5)
	if p1.workers != 5 {
		t.Errorf("expected 5 workers, got %d", p1.workers)
	}

	p2 := NewPool(context.Background(), 0)
	if p2.workers != 1 {
		t.Errorf("expected default 1 worker for 0 input, got %d", p2.workers)
	}

	p3 := NewPool(context.Background(), -1)
	if p3.workers != 1 {
		t.Errorf("expected default 1 worker for negative input, got %d", p3.workers)
	}
}

func TestPool_Execution(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	var executed int32
	count := 10

	for i := 0; i < count; i++ {
		pool.Submit(&mockJob{executed: &executed})
	}

	results := pool.Wait()

	if len(results) != count {
		t.Errorf("expected %d results, got %d", count, len(results))
	}

	if atomic.LoadInt32(&executed) != int32(count) {
		t.Errorf("expected %d executed jobs, got %d", count, executed)
	}
}

// concurrencyJob tracks max concurrent executions
type concurrencyJob struct {
	start    func()
	end      func()
	duration time.Duration
}

func (j *concurrencyJob) Execute(ctx context.Context) Result {
	if j.start != nil {
		j.start()
	}
	time.Sleep(j.duration)
	if j.end != nil {
		j.end()
	}
	return &mockResult{}
}

func TestPool_Concurrency(t *testing.T) {
	workers := 10
	pool := NewPool(context.Background(), workers)
	pool.Start()

	var current int32
	var maxConcurrent int32
	var completed int32
	var mu sync.Mutex

	totalJobs := 50

	for i := 0; i < totalJobs; i++ {
		pool.Submit(&concurrencyJob{
			start: func() {
				curr := atomic.AddInt32(&current, 1)
				mu.Lock()
				if curr > maxConcurrent {
					maxConcurrent = curr
				}
				mu.Unlock()
			},
			end: func() {
				atomic.AddInt32(&current, -1)
				atomic.AddInt32(&completed, 1)
			},
			duration: 10 * time.Millisecond,
		})
	}

	pool.Wait()

	if atomic.LoadInt32(&completed) != int32(totalJobs) {
		t.Errorf("expected %d completed jobs, got %d", totalJobs, completed)
	}

	mu.Lock()
	max := maxConcurrent
	mu.Unlock()

	if max > int32(workers) {
		t.Errorf("max concurrency %d exceeded workers %d", max, workers)
	}

	if max <= 1 {
		t.Logf("Warning: max concurrency was %d, expected > 1", max)
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	pool.Submit(&mockJob{shouldErr: true})
	pool.Submit(&mockJob{shouldErr: false})

	results := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	errors := 0
	for _, res := range results {
		if res.GetError() != nil {
			errors++
		}
	}

	if errors != 1 {
		t.Errorf("expected 1 error, got %d", errors)
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	// Submit after shutdown should not panic or block
	done := make(chan struct{})
	go func() {
		if pool.Submit(&mockJob{}) {
			t.Error("Submit after shutdown reported success")
		}
		close(done)
	}()

	select {
	case <-done:
		// success
	case <-time.After(1 * time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestPool_Shutdown(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	// Use a channel to synchronize start of job
	started := make(chan struct{})

	pool.Submit(&concurrencyJob{
		start: func() {
			close(started)
		},
		duration: 200 * time.Millisecond,
	})

	// Wait for job to start
	<-started

	// Shutdown immediately; the running job still reports its result
	if results := pool.Shutdown(); len(results) != 1 {
		t.Errorf("expected 1 result from the running job, got %d", len(results))
	}

	// Ensure the running job observed cancellation and the pool settled
	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
		// success
	case <-time.After(1 * time.Second):
		t.Fatal("Shutdown timed out")
	}
}

func TestPool_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()

	pool.Submit(&mockJob{duration: 5 * time.Second})
	cancel()

	done := make(chan []Result)
	go func() {
		done <- pool.Wait()
	}()

	select {
	case results := <-done:
		for _, r := range results {
			if r.GetError() == nil {
				t.Error("expected cancelled job to report an error")
			}
		}
	case <-time.After(1 * time.Second):
		t.Fatal("parent cancellation did not stop the pool")
	}
}

func TestPool_ManyJobsFewWorkers(t *testing.T) {
	pool := NewPool(context.Background(), 1)
	pool.Start()

	count := 50
	for i := 0; i < count; i++ {
		pool.Submit(&mockJob{})
	}

	if results := pool.Wait(); len(results) != count {
		t.Errorf("expected %d results, got %d", count, len(results))
	}
}

func TestRunAll(t *testing.T) {
	var executed int32
	jobs := make([]Job, 0, 4)
	for i := 0; i < 4; i++ {
		jobs = append(jobs, Func(func(ctx context.Context) Result {
			atomic.AddInt32(&executed, 1)
			return &mockResult{}
		}))
	}

	results := RunAll(context.Background(), 8, jobs)
	if len(results) != 4 {
		t.Errorf("expected 4 results, got %d", len(results))
	}
	if atomic.LoadInt32(&executed) != 4 {
		t.Errorf("expected 4 executed jobs, got %d", executed)
	}

	if got := RunAll(context.Background(), 2, nil); got != nil {
		t.Errorf("expected nil results for no jobs, got %v", got)
	}
}

func TestRunAll_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed int32
	jobs := []Job{
		&mockJob{executed: &executed},
		&mockJob{executed: &executed},
		&mockJob{executed: &executed},
	}

	results := RunAll(ctx, 2, jobs)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if got := atomic.LoadInt32(&executed); got != 0 {
		t.Errorf("expected no executed jobs, got %d", got)
	}
}

func TestRunAll_CancelDropsQueuedJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	var executed int32
	jobs := []Job{Func(func(ctx context.Context) Result {
		atomic.AddInt32(&executed, 1)
		close(started)
		<-ctx.Done()
		return &mockResult{err: ctx.Err()}
	})}
	for i := 0; i < 5; i++ {
		jobs = append(jobs, &mockJob{executed: &executed})
	}

	go func() {
		<-started
		cancel()
	}()

	results := RunAll(ctx, 1, jobs)

	got := atomic.LoadInt32(&executed)
	if got >= int32(len(jobs)) {
		t.Errorf("expected queued jobs to be dropped, %d of %d ran", got, len(jobs))
	}
	if int32(len(results)) != got {
		t.Errorf("expected one result per executed job, got %d results for %d jobs", len(results), got)
	}
}
