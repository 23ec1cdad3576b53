package runtime

import (
	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/task"
	"github.com/vango-dev/resume/pkg/vdom"
)

// HandlerFunc is an event handler.
type HandlerFunc func(inv *Invocation) error

func asHandlerFunc(v any) (HandlerFunc, bool) {
	switch fn := v.(type) {
	case HandlerFunc:
		return fn, true
	case func(*Invocation) error:
		return fn, true
	case func(*Invocation):
		return func(inv *Invocation) error { fn(inv); return nil }, true
	default:
		return nil, false
	}
}

// Dispatch runs the handler bound to event on el. The future resolves
// with true once the handler and the renders it caused have finished, or
// with false when el has no handler for event. Handler failures reject
// it.
func (c *Context) Dispatch(el dom.Node, event string, payload any) *task.Future {
	locator, ok := el.Attr(vdom.EventPrefix + event)
	if !ok || c.disposed {
		return c.loop.Resolved(false)
	}
	c.ensureHydrated()

	out, resolve, reject := c.loop.NewFuture()
	c.importer.Import(c.loop, locator, el).OnSettle(func(v any, err error) {
		if err != nil {
			reject(c.handlerFailed(locator, event, errors.FromError(err, "R022")))
			return
		}
		handler, ok := asHandlerFunc(v)
		if !ok {
			reject(c.handlerFailed(locator, event, errors.New("R021").WithDetail("%T", v)))
			return
		}
		inv, err := c.invocation(nearestHost(el), locator, el, event, payload)
		if err != nil {
			reject(c.handlerFailed(locator, event, err))
			return
		}

		var herr error
		panicked, stack := capture(func() {
			reactive.WithTracker(inv, func() { herr = handler(inv) })
		})
		switch {
		case panicked != nil && errors.IsFatal(panicked):
			reject(panicked.(error))
			return
		case panicked != nil:
			c.logger.Error("handler panic", "locator", locator, "stack", string(stack))
			reject(c.handlerFailed(locator, event, panicError(panicked)))
			return
		case herr != nil:
			reject(c.handlerFailed(locator, event, herr))
			return
		}

		if busy := c.sched.Busy(); busy != nil {
			resolve(busy.Then(func(any) (any, error) { return true, nil }))
			return
		}
		resolve(true)
	})
	return out
}

func (c *Context) handlerFailed(locator, event string, err error) error {
	e := errors.New("R023").Wrap(err).With("event", event).With("locator", locator)
	c.logger.Error("handler failed", "locator", locator, "event", event, "error", err)
	return e
}
