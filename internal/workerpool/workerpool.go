// Package workerpool is a FIFO task queue backed by a bounded, opportunistically
// grown set of goroutines — the Go translation of the runtime's native
// thread pool, used to run container I/O and grammar compilation off the
// caller's goroutine without spawning one goroutine per request.
package workerpool

import (
	"sync"
	"time"

	"github.com/litert-lm/litertlm-go/internal/litertlmerr"
)

// Pool runs scheduled tasks on up to maxWorkers goroutines, growing lazily
// as tasks arrive rather than spawning all of them up front.
type Pool struct {
	namePrefix string
	maxWorkers int

	mu          sync.Mutex
	cond        *sync.Cond
	tasks       []func()
	numWorkers  int
	numActive   int
	stopped     bool
}

// New creates a pool that spawns at most maxWorkers goroutines, named for
// diagnostics with namePrefix (goroutines themselves aren't nameable in Go,
// so it only appears in the pool's error messages).
func New(namePrefix string, maxWorkers int) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	p := &Pool{namePrefix: namePrefix, maxWorkers: maxWorkers}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Schedule enqueues fn to run on some worker goroutine. Workers take tasks
// in the order they were scheduled, but with more than one worker tasks run
// concurrently and may finish out of order.
func (p *Pool) Schedule(fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return litertlmerr.New(litertlmerr.FailedPrecondition, "workerpool.Schedule", "pool %s is stopped", p.namePrefix)
	}
	p.tasks = append(p.tasks, fn)
	if p.numWorkers < p.maxWorkers {
		p.numWorkers++
		go p.runWorker()
	}
	p.cond.Signal()
	return nil
}

func (p *Pool) runWorker() {
	for {
		p.mu.Lock()
		for len(p.tasks) == 0 && !p.stopped {
			p.cond.Wait()
		}
		if len(p.tasks) == 0 && p.stopped {
			p.numWorkers--
			p.mu.Unlock()
			return
		}
		fn := p.tasks[0]
		p.tasks = p.tasks[1:]
		p.numActive++
		p.mu.Unlock()

		fn()

		p.mu.Lock()
		p.numActive--
		p.cond.Broadcast()
		p.mu.Unlock()
	}
}

// WaitUntilIdle blocks until the task queue is empty (not necessarily that
// running tasks have finished), returning DeadlineExceeded if timeout
// elapses first.
func (p *Pool) WaitUntilIdle(timeout time.Duration) error {
	return p.waitFor(timeout, func() bool { return len(p.tasks) == 0 })
}

// WaitUntilDone blocks until both the queue is empty and every dispatched
// task has finished running.
func (p *Pool) WaitUntilDone(timeout time.Duration) error {
	return p.waitFor(timeout, func() bool { return len(p.tasks) == 0 && p.numActive == 0 })
}

func (p *Pool) waitFor(timeout time.Duration, done func() bool) error {
	deadline := time.Now().Add(timeout)
	p.mu.Lock()
	defer p.mu.Unlock()

	for !done() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return litertlmerr.New(litertlmerr.DeadlineExceeded, "workerpool.waitFor",
				"timed out after %s waiting on pool %s", timeout, p.namePrefix)
		}
		waited := make(chan struct{})
		timer := time.AfterFunc(remaining, func() {
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
			close(waited)
		})
		p.cond.Wait()
		timer.Stop()
		select {
		case <-waited:
		default:
		}
	}
	return nil
}

// MaxWorkers returns the pool's configured ceiling.
func (p *Pool) MaxWorkers() int { return p.maxWorkers }

// NumWorkers returns how many goroutines have actually been spawned so far.
func (p *Pool) NumWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.numWorkers
}

// Stop signals every worker to exit once the queue drains; it does not
// cancel tasks already queued.
func (p *Pool) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.cond.Broadcast()
	p.mu.Unlock()
}
