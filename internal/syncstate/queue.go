package syncstate

import (
	"context"
	"sync"
)

// queue is an unbounded FIFO drained by a single worker goroutine.
type queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	jobs     []func(context.Context)
	stopping bool
	stopped  chan struct{}
	onDepth  func(int)
}

func newQueue(onDepth func(int)) *queue {
	q := &queue{stopped: make(chan struct{}), onDepth: onDepth}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends job. It reports false once stop has been called.
func (q *queue) push(job func(context.Context)) bool {
	q.mu.Lock()
	if q.stopping {
		q.mu.Unlock()
		return false
	}
	q.jobs = append(q.jobs, job)
	depth := len(q.jobs)
	q.cond.Signal()
	q.mu.Unlock()
	q.onDepth(depth)
	return true
}

// run executes jobs in order until stop is called and the queue is empty.
func (q *queue) run(ctx context.Context) {
	defer close(q.stopped)
	for {
		q.mu.Lock()
		for len(q.jobs) == 0 && !q.stopping {
			q.cond.Wait()
		}
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs[0] = nil
		q.jobs = q.jobs[1:]
		depth := len(q.jobs)
		q.mu.Unlock()

		job(ctx)
		q.onDepth(depth)
	}
}

// stop lets the worker exit after draining what is already queued.
func (q *queue) stop() {
	q.mu.Lock()
	q.stopping = true
	q.cond.Broadcast()
	q.mu.Unlock()
}
