package worker

import "context"

// Func adapts a plain function to the Job interface
type Func func(ctx context.Context) Result

// Execute runs the function
func (f Func) Execute(ctx context.Context) Result {
	return f(ctx)
}

// RunAll executes jobs on a fresh pool of the given size and returns every
// result once all jobs finished. Result order is not defined. When ctx is
// cancelled before every job was queued, only the results of jobs that
// already ran are returned.
func RunAll(ctx context.Context, workers int, jobs []Job) []Result {
	if len(jobs) == 0 {
		return nil
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	pool := NewPool(ctx, workers)
	pool.Start()

	for _, job := range jobs {
		if !pool.Submit(job) {
			// The caller gave up; do not run what is still queued
			return pool.Shutdown()
		}
	}

	return pool.Wait()
}
