package worker

import (
	"context"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Task is one unit of background work (OCR, translation, compositing).
// It runs on a worker goroutine and must honour ctx.
type Task func(ctx context.Context)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs    chan job
	wg      sync.WaitGroup
	closed  atomic.Bool
	mu      sync.RWMutex
	timeout time.Duration
}

type job struct {
	ctx  context.Context
	name string
	task Task
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
// timeout, when positive, bounds every task's context.
func New(size int, timeout time.Duration) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1), timeout: timeout}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.run(j)
			}
		}()
	}
}

func (p *Pool) run(j job) {
	ctx := j.ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker: task %q panicked: %v", j.name, r)
		}
	}()
	start := time.Now()
	log.Printf("Worker: starting %s", j.name)
	j.task(ctx)
	log.Printf("Worker: %s finished in %v", j.name, time.Since(start))
}

// Submit enqueues a task if the single-slot queue is free. Returns false if dropped
// or the pool is closed.
func (p *Pool) Submit(ctx context.Context, name string, task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return false
	}
	select {
	case p.jobs <- job{ctx: ctx, name: name, task: task}:
		return true
	default:
		log.Printf("Worker: queue full, dropping %s", name)
		return false
	}
}

// Close stops the pool after draining current work. Safe to call twice.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed.Swap(true) {
		p.mu.Unlock()
		return
	}
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
