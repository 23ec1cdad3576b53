package task

import (
	"errors"
	"fmt"
)

// ErrCanceled is used to reject futures whose work was abandoned.
var ErrCanceled = errors.New("task: canceled")

// PanicError is the rejection reason of a future whose continuation
// panicked.
type PanicError struct {
	Value any
}

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprintf("task: panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Future is the eventual result of a unit of work.
//
// Futures are only settled and observed on their loop's thread.
type Future struct {
	loop    *Loop
	settled bool
	value   any
	err     error
	waiters []func(any, error)
}

func newFuture(l *Loop) *Future {
	return &Future{loop: l}
}

// NewFuture returns an unsettled future and the functions that settle it.
// Only the first call to either function has an effect.
func (l *Loop) NewFuture() (f *Future, resolve func(any), reject func(error)) {
	f = newFuture(l)
	return f, func(v any) { f.settle(v, nil) }, func(err error) { f.settle(nil, err) }
}

// Resolved returns a future already settled with v.
func (l *Loop) Resolved(v any) *Future {
	f := newFuture(l)
	f.settled = true
	f.value = v
	return f
}

// Rejected returns a future already settled with err.
func (l *Loop) Rejected(err error) *Future {
	f := newFuture(l)
	f.settled = true
	f.err = err
	return f
}

// Settled reports whether the future has a result.
func (f *Future) Settled() bool {
	return f.settled
}

// Result returns the value and error. Both are zero until settled.
func (f *Future) Result() (any, error) {
	return f.value, f.err
}

// Loop returns the loop the future belongs to.
func (f *Future) Loop() *Loop {
	return f.loop
}

func (f *Future) settle(v any, err error) {
	if f.settled {
		return
	}
	// A value that is itself a future is adopted rather than stored.
	if inner, ok := v.(*Future); ok && err == nil {
		inner.OnSettle(func(v any, err error) { f.settle(v, err) })
		return
	}
	f.settled = true
	f.value = v
	f.err = err
	waiters := f.waiters
	f.waiters = nil
	for _, w := range waiters {
		w := w
		f.loop.Post(func() { w(v, err) })
	}
}

// OnSettle registers fn to run on the loop thread once the future
// settles. fn always runs in a later task, never synchronously.
func (f *Future) OnSettle(fn func(any, error)) {
	if f.settled {
		v, err := f.value, f.err
		f.loop.Post(func() { fn(v, err) })
		return
	}
	f.waiters = append(f.waiters, fn)
}

// Then chains a continuation. fn runs after f resolves successfully; a
// rejection skips fn and propagates. If fn returns a *Future it is
// adopted. A panic inside fn rejects the returned future with a
// *PanicError.
func (f *Future) Then(fn func(any) (any, error)) *Future {
	next := newFuture(f.loop)
	f.OnSettle(func(v any, err error) {
		if err != nil {
			next.settle(nil, err)
			return
		}
		out, err := safeCall(func() (any, error) { return fn(v) })
		next.settle(out, err)
	})
	return next
}

// Finally runs fn after f settles regardless of outcome and returns a
// future with f's result.
func (f *Future) Finally(fn func(any, error)) *Future {
	next := newFuture(f.loop)
	f.OnSettle(func(v any, err error) {
		if _, perr := safeCall(func() (any, error) { fn(v, err); return nil, nil }); perr != nil {
			next.settle(nil, perr)
			return
		}
		next.settle(v, err)
	})
	return next
}

// Value returns a future's value if it is a *Future, otherwise wraps v in
// a resolved future.
func (l *Loop) Value(v any) *Future {
	if f, ok := v.(*Future); ok {
		return f
	}
	return l.Resolved(v)
}

func safeCall(fn func() (any, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = &PanicError{Value: r}
		}
	}()
	return fn()
}
