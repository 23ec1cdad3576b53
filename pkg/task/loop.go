package task

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Loop is a single-threaded task queue.
type Loop struct {
	mu    sync.Mutex
	queue []func()

	// wake is signaled (non-blocking, capacity 1) whenever a task is posted.
	wake chan struct{}

	// pending counts goroutines started with Go that have not posted back.
	pending sync.WaitGroup

	logger *slog.Logger
}

// NewLoop creates a loop. A nil logger uses slog.Default().
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		logger: logger.With("component", "task"),
	}
}

// Post enqueues fn to run on the loop thread. Safe for concurrent use.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
		// Already signaled
	}
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// RunUntilIdle runs queued tasks, including tasks they post, until the
// queue is empty. Returns the number of tasks executed.
func (l *Loop) RunUntilIdle() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.execute(fn)
		n++
	}
}

// Run processes tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunUntilIdle()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Await runs the loop until f settles or ctx is done.
func (l *Loop) Await(ctx context.Context, f *Future) (any, error) {
	for !f.Settled() {
		if l.RunUntilIdle() > 0 {
			continue
		}
		if f.Settled() {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-l.wake:
		}
	}
	return f.Result()
}

// Go runs fn on a new goroutine and settles the returned future on the
// loop thread with fn's result.
func (l *Loop) Go(fn func() (any, error)) *Future {
	f := newFuture(l)
	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		v, err := safeCall(fn)
		l.Post(func() { f.settle(v, err) })
	}()
	return f
}

// Wait blocks until every goroutine started with Go has posted back.
func (l *Loop) Wait() {
	l.pending.Wait()
}

// execute runs a task with panic recovery. A panic terminates only the
// task that raised it.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
