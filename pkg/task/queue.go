package task

import "errors"

// All settles once every future has settled. It resolves with the slice
// of values, or rejects with all rejection reasons joined. An empty input
// resolves in the next task.
func (l *Loop) All(futures []*Future) *Future {
	out := newFuture(l)
	if len(futures) == 0 {
		l.Post(func() { out.settle([]any{}, nil) })
		return out
	}

	values := make([]any, len(futures))
	errs := make([]error, 0)
	remaining := len(futures)
	for i, f := range futures {
		i := i
		f.OnSettle(func(v any, err error) {
			values[i] = v
			if err != nil {
				errs = append(errs, err)
			}
			remaining--
			if remaining == 0 {
				out.settle(values, errors.Join(errs...))
			}
		})
	}
	return out
}

// Queue is a join list of in-flight futures collected during one pass.
// Futures may be added while earlier ones are still pending; Flush waits
// for the list to drain transitively.
type Queue struct {
	loop    *Loop
	futures []*Future
}

// NewQueue creates an empty queue.
func (l *Loop) NewQueue() *Queue {
	return &Queue{loop: l}
}

// Add appends a future. Nil futures are ignored.
func (q *Queue) Add(f *Future) {
	if f != nil {
		q.futures = append(q.futures, f)
	}
}

// Len returns the number of futures added since the last Flush.
func (q *Queue) Len() int {
	return len(q.futures)
}

// Flush returns a future that settles once every queued future, and
// every future added while waiting, has settled.
func (q *Queue) Flush() *Future {
	out := newFuture(q.loop)
	var errs []error
	var drain func()
	drain = func() {
		if len(q.futures) == 0 {
			out.settle(nil, errors.Join(errs...))
			return
		}
		batch := q.futures
		q.futures = nil
		q.loop.All(batch).OnSettle(func(_ any, err error) {
			if err != nil {
				errs = append(errs, err)
			}
			drain()
		})
	}
	q.loop.Post(drain)
	return out
}
