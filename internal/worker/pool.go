// Package worker provides a bounded worker pool and per-host rate limiting
// for running many claims concurrently against shared retrieval backends.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work executed by the pool, typically one claim.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of a job execution.
type Result interface {
	GetError() error
}

// Pool runs jobs on a fixed number of workers and gathers their results.
// The queue is buffered so submission rarely blocks the producer.
type Pool struct {
	workers int
	jobs    chan Job
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	results []Result
}

// NewPool creates a pool with the given number of workers.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers: workers,
		jobs:    make(chan Job, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for range p.workers {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			res := job.Execute(p.ctx)

			p.mu.Lock()
			p.results = append(p.results, res)
			p.mu.Unlock()
		}
	}
}

// Submit queues a job for execution. After Shutdown it returns without
// blocking and the job is discarded.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- job:
	}
}

// Wait closes the queue, waits for all submitted jobs to finish, and
// returns their results in completion order. Call it once.
func (p *Pool) Wait() []Result {
	close(p.jobs)
	p.wg.Wait()
	return p.results
}

// Shutdown cancels in-flight jobs and stops the workers. Results of jobs
// that already finished remain available through Wait.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
