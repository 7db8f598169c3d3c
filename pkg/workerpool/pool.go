// Package workerpool provides a bounded goroutine pool with backpressure.
//
// When every worker is busy and the buffer is full, Submit and Do return
// ErrPoolFull immediately instead of queueing without bound.
//
//	pool := workerpool.New(4)
//	defer pool.Shutdown()
//
//	err := pool.Do(ctx, func() error { return resize(img) })
//	if errors.Is(err, workerpool.ErrPoolFull) {
//	    // answer 503
//	}
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolFull is returned when the task buffer is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned after Shutdown.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New creates a Pool with size workers and a buffer of 2×size tasks.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{tasks: make(chan func(), size*2)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until task is enqueued, the pool closes or ctx ends.
func (p *Pool) SubmitWait(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the pool and waits for its result or for ctx. A panic in
// fn is returned as an error. Do never blocks on a full pool.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	err := p.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("workerpool: task panicked: %v", r)
			}
		}()
		done <- fn()
	})
	if err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish. It is
// safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		safeRun(task)
	}
}

func safeRun(task func()) {
	defer func() { recover() }() //nolint:errcheck
	task()
}
