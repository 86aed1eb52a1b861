// Package parallel runs batches of independent jobs on a fixed set of
// goroutines. The software device uses it to execute the workgroups of a
// dispatch.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines with one queue each.
// An idle worker steals from the other queues before blocking on its own,
// which keeps workers busy when jobs have uneven cost (a blur row near the
// edge is cheaper than one in the middle).
//
// WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	depth := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), depth)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.loop(i)
	}
	return p
}

func (p *WorkerPool) loop(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case job := <-own:
			job()
			continue
		default:
		}

		if job := p.steal(id); job != nil {
			job()
			continue
		}

		select {
		case <-p.done:
			p.drain(own)
			return
		case job := <-own:
			job()
		}
	}
}

func (p *WorkerPool) drain(q chan func()) {
	for {
		select {
		case job := <-q:
			job()
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(id int) func() {
	for i := 1; i < p.workers; i++ {
		select {
		case job := <-p.queues[(id+i)%p.workers]:
			return job
		default:
		}
	}
	return nil
}

// ExecuteAll runs every job and returns once all of them have finished.
// Jobs are spread round-robin over the worker queues. After Close the
// jobs run on the calling goroutine.
func (p *WorkerPool) ExecuteAll(jobs []func()) {
	if len(jobs) == 0 {
		return
	}
	if !p.running.Load() {
		for _, job := range jobs {
			job()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(jobs))
	for i, job := range jobs {
		wrapped := func() {
			defer wg.Done()
			job()
		}
		select {
		case p.queues[i%p.workers] <- wrapped:
		case <-p.done:
			wrapped()
		}
	}
	wg.Wait()
}

// Range calls fn(i) for every i in [0, n) across the pool and waits.
func (p *WorkerPool) Range(n int, fn func(i int)) {
	jobs := make([]func(), n)
	for i := range n {
		jobs[i] = func() { fn(i) }
	}
	p.ExecuteAll(jobs)
}

// Close stops the workers after the queued jobs have run.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int { return p.workers }

// IsRunning reports whether the pool accepts jobs.
func (p *WorkerPool) IsRunning() bool { return p.running.Load() }
