// Package workerpool provides a bounded goroutine pool with backpressure.
//
// A Pool limits the number of goroutines that run concurrently. When all
// workers are busy, Submit returns ErrPoolFull immediately so the caller can
// decide to queue, retry, or reject. Batch groups related tasks and collects
// their errors:
//
//	pool := workerpool.New(4)
//	defer pool.Shutdown()
//
//	b := pool.NewBatch()
//	for _, group := range byVariant {
//	    group := group
//	    _ = b.Go(func() error { return applyInOrder(ctx, group) })
//	}
//	err := b.Wait()
package workerpool

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPoolFull is returned by Submit when all workers are busy and the task
// queue is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned by Submit after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks  chan func()
	wg     sync.WaitGroup
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

// New creates a Pool with the given number of workers.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		tasks: make(chan func(), size*2),
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Submit enqueues task for execution. It never blocks.
//   - Returns ErrPoolFull if the task queue is at capacity.
//   - Returns ErrPoolClosed if Shutdown has been called.
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

// SubmitWait is like Submit but blocks until a slot is available.
// Returns ErrPoolClosed if the pool is shutting down.
func (p *Pool) SubmitWait(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.tasks <- task
	return nil
}

// Shutdown stops accepting new tasks, waits for all queued and in-flight
// tasks to complete, and releases the workers. Safe to call multiple times.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		_ = safeRun(func() error { task(); return nil })
	}
}

// safeRun executes task, turning a panic into an error so a bad task
// neither kills the worker nor leaks a Batch waiter.
func safeRun(task func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workerpool: task panicked: %v", r)
		}
	}()
	return task()
}

// ─── Batch ────────────────────────────────────────────────────────────────────

// Batch tracks a set of tasks submitted to one Pool.
type Batch struct {
	pool *Pool
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

func (p *Pool) NewBatch() *Batch { return &Batch{pool: p} }

// Go submits task, blocking while the pool is saturated.
func (b *Batch) Go(task func() error) error {
	b.wg.Add(1)
	err := b.pool.SubmitWait(func() {
		defer b.wg.Done()
		if err := safeRun(task); err != nil {
			b.mu.Lock()
			b.errs = append(b.errs, err)
			b.mu.Unlock()
		}
	})
	if err != nil {
		b.wg.Done()
	}
	return err
}

// Wait blocks until every submitted task has finished and joins their errors.
func (b *Batch) Wait() error {
	b.wg.Wait()
	b.mu.Lock()
	defer b.mu.Unlock()
	return errors.Join(b.errs...)
}
