package livebind

import (
	"context"
	"sync"
)

// Scheduler queues continuations. Continuations touch the tree, so they must
// run on the goroutine that owns it.
type Scheduler interface {
	Schedule(task func())
}

// TaskQueue is a Scheduler drained explicitly by the tree's owner.
type TaskQueue struct {
	mu     sync.Mutex
	tasks  []func()
	notify chan struct{}
}

// NewTaskQueue creates an empty queue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{notify: make(chan struct{}, 1)}
}

// DefaultQueue receives future continuations when no scheduler is configured.
// Nothing drains it on its own: code that binds futures without WithScheduler
// must call DefaultQueue.Flush or run DefaultQueue.Run, or the continuations
// accumulate.
var DefaultQueue = NewTaskQueue()

// Schedule appends task. Safe for concurrent use.
func (q *TaskQueue) Schedule(task func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued tasks.
func (q *TaskQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Flush runs queued tasks, including tasks they schedule, until the queue is
// empty. It returns how many tasks ran.
func (q *TaskQueue) Flush() int {
	ran := 0
	for {
		q.mu.Lock()
		tasks := q.tasks
		q.tasks = nil
		q.mu.Unlock()

		if len(tasks) == 0 {
			return ran
		}
		for _, task := range tasks {
			task()
			ran++
		}
	}
}

// Run flushes the queue whenever tasks arrive until ctx is done.
func (q *TaskQueue) Run(ctx context.Context) error {
	for {
		q.Flush()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.notify:
		}
	}
}

// Future is a value that becomes available later. Binding a Future to a node
// renders its value once it resolves, unless a newer value was bound first.
type Future struct {
	mu        sync.Mutex
	settled   bool
	value     any
	err       error
	callbacks []func(any, error)
}

// NewFuture creates an unsettled future.
func NewFuture() *Future {
	return &Future{}
}

// Resolved returns a future already settled with v.
func Resolved(v any) *Future {
	f := NewFuture()
	f.Resolve(v)
	return f
}

// Resolve settles the future with v. Later calls are ignored.
func (f *Future) Resolve(v any) {
	f.settle(v, nil)
}

// Reject settles the future with err. Later calls are ignored.
func (f *Future) Reject(err error) {
	f.settle(nil, err)
}

func (f *Future) settle(v any, err error) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.value, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
}

// Settled reports whether the future has a value or an error.
func (f *Future) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// then queues fn on s once the future settles.
func (f *Future) then(s Scheduler, fn func(any, error)) {
	f.mu.Lock()
	if !f.settled {
		f.callbacks = append(f.callbacks, func(v any, err error) {
			s.Schedule(func() { fn(v, err) })
		})
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	s.Schedule(func() { fn(v, err) })
}
