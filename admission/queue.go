// Package admission bounds how much wallet work runs at once. A fixed number
// of slots execute tasks immediately, a fixed backlog defers the overflow,
// and anything past both limits is rejected synchronously so the caller can
// answer 429 without dispatching.
package admission

import (
	"sync"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-wallet-bridge/core"
)

// Task is one unit of admitted work. Errors are logged, never re-raised.
type Task func() error

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger used for task failures.
func WithLogger(logger core.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// Queue is a fixed-capacity admission gate. Completion of any task pumps the
// FIFO backlog; backlog order is never reordered.
type Queue struct {
	mu          sync.Mutex
	concurrency int
	capacity    int
	active      int
	pending     []Task
	accepted    uint64
	rejected    uint64
	completed   uint64
	logger      core.Logger
}

// New builds a queue with the given concurrency and backlog capacity.
func New(concurrency, capacity int, opts ...Option) *Queue {
	if concurrency < 1 {
		concurrency = 1
	}
	if capacity < 0 {
		capacity = 0
	}
	queue := &Queue{
		concurrency: concurrency,
		capacity:    capacity,
		logger:      glog.Ensure(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(queue)
		}
	}
	return queue
}

// Enqueue admits task for execution. It returns true when the task runs now
// or waits in the backlog, false when both are full. A false return means
// the task will never run.
func (q *Queue) Enqueue(task Task) bool {
	if task == nil {
		return false
	}

	q.mu.Lock()
	if q.active < q.concurrency {
		q.active++
		q.accepted++
		q.mu.Unlock()
		go q.work(task)
		return true
	}
	if len(q.pending) < q.capacity {
		q.pending = append(q.pending, task)
		q.accepted++
		q.mu.Unlock()
		return true
	}
	q.rejected++
	q.mu.Unlock()
	return false
}

// work runs task, then keeps the slot busy draining the backlog head until
// none remains.
func (q *Queue) work(task Task) {
	for task != nil {
		q.execute(task)
		task = q.next()
	}
}

func (q *Queue) execute(task Task) {
	defer func() {
		if recovered := recover(); recovered != nil {
			q.logger.Error("admission task panicked", "panic", recovered)
		}
	}()
	if err := task(); err != nil {
		q.logger.Error("admission task failed", "error", err.Error())
	}
}

func (q *Queue) next() Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.completed++
	if len(q.pending) > 0 {
		task := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		return task
	}
	q.active--
	return nil
}

// Snapshot reports current queue counters.
func (q *Queue) Snapshot() core.AdmissionStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return core.AdmissionStats{
		Active:    q.active,
		Pending:   len(q.pending),
		Accepted:  q.accepted,
		Rejected:  q.rejected,
		Completed: q.completed,
	}
}
