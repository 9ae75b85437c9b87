package backtest

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is one whole-run backtest task: a config to replay on an engine.
// Runs over different configs share nothing mutable, so they parallelize
// freely while each run stays strictly sequential internally.
type Job struct {
	ID     string
	Config Config
	Engine *Engine
}

// JobResult pairs a finished run with its job.
type JobResult struct {
	ID       string
	Config   Config
	Results  *Results
	Duration time.Duration
	Err      error
}

// Pool executes independent backtest jobs across a fixed set of workers.
type Pool struct {
	workerCount int
	jobs        chan Job
	results     chan JobResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewPool creates a pool. workerCount <= 0 selects NumCPU.
func NewPool(workerCount, buffer int) *Pool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workerCount: workerCount,
		jobs:        make(chan Job, buffer),
		results:     make(chan JobResult, buffer),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop drains the queue, waits for workers, and closes the result channel.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
	p.cancel()
}

// Submit queues a job. A zero ID is filled with a fresh UUID.
func (p *Pool) Submit(job Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Results exposes the completion channel.
func (p *Pool) Results() <-chan JobResult {
	return p.results
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			start := time.Now()
			results, err := job.Engine.Run(p.ctx, job.Config)
			out := JobResult{
				ID:       job.ID,
				Config:   job.Config,
				Results:  results,
				Duration: time.Since(start),
				Err:      err,
			}
			select {
			case p.results <- out:
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// RunAll is a convenience wrapper: start, submit every config, collect.
// Result order matches completion order, not submission order.
func RunAll(engine *Engine, configs []Config, workers int) []JobResult {
	pool := NewPool(workers, len(configs))
	pool.Start()

	go func() {
		for _, cfg := range configs {
			if err := pool.Submit(Job{Config: cfg, Engine: engine}); err != nil {
				break
			}
		}
	}()

	out := make([]JobResult, 0, len(configs))
	for i := 0; i < len(configs); i++ {
		out = append(out, <-pool.Results())
	}
	pool.Stop()
	return out
}
