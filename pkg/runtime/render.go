package runtime

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/reconcile"
	"github.com/vango-dev/resume/pkg/symbol"
	"github.com/vango-dev/resume/pkg/task"
	"github.com/vango-dev/resume/pkg/vdom"
)

// RenderFunc is a component render hook.
type RenderFunc func(inv *Invocation) *vdom.VNode

// RenderHost imports the render hook of host, runs it and reconciles its
// output into host. The future settles once nested renders settle.
//
// A hook that panics, or a hook that cannot be loaded, is logged and
// leaves the host's markup as it was; the future still resolves. Misuse
// and missing-context errors reject it.
func (c *Context) RenderHost(host dom.Node) *task.Future {
	hook, ok := host.Attr(vdom.HookAttr)
	if !ok || c.disposed {
		return c.loop.Resolved(nil)
	}

	out, resolve, reject := c.loop.NewFuture()
	c.importer.Import(c.loop, hook, host).OnSettle(func(v any, err error) {
		if p, stack := capture(func() {
			c.renderImported(host, hook, v, err, resolve, reject)
		}); p != nil {
			reject(c.renderPanic(hook, p, stack))
		}
	})
	return out
}

func (c *Context) renderImported(host dom.Node, hook string, v any, err error, resolve func(any), reject func(error)) {
	if err != nil {
		c.renderFailed(hook, errors.FromError(err, "R022"), nil)
		resolve(nil)
		return
	}
	render, ok := asRenderFunc(v)
	if !ok {
		c.renderFailed(hook, errors.New("R021").WithDetail("%T", v), nil)
		resolve(nil)
		return
	}
	f, err := c.render(host, hook, render)
	if err != nil {
		reject(err)
		return
	}
	resolve(f)
}

// renderPanic converts a panic raised while rendering hook into the
// error that rejects the render.
func (c *Context) renderPanic(hook string, p any, stack []byte) error {
	if errors.IsFatal(p) {
		return p.(error)
	}
	c.logger.Error("render panic", "locator", hook, "panic", p, "stack", string(stack))
	return errors.New("R020").Wrap(panicError(p))
}

func asRenderFunc(v any) (RenderFunc, bool) {
	switch fn := v.(type) {
	case RenderFunc:
		return fn, true
	case func(*Invocation) *vdom.VNode:
		return fn, true
	default:
		return nil, false
	}
}

// render runs one hook. The returned error is fatal; recoverable
// failures are logged and yield a settled future.
func (c *Context) render(host dom.Node, hook string, render RenderFunc) (*task.Future, error) {
	start := time.Now()
	inv, err := c.invocation(host, hook, nil, "", nil)
	if err != nil {
		c.renderFailed(hook, err, nil)
		return c.loop.Resolved(nil), nil
	}

	var node *vdom.VNode
	panicked, stack := capture(func() {
		reactive.WithTracker(inv, func() {
			node = expand(render(inv))
		})
	})
	if panicked != nil {
		if errors.IsFatal(panicked) {
			return nil, panicked.(error)
		}
		c.renderFailed(hook, errors.New("R020").Wrap(panicError(panicked)), stack)
		return c.loop.Resolved(nil), nil
	}

	r := reconcile.New(c, nil)
	if p, stack := capture(func() {
		r.RenderHost(host, node)
		c.subs.ReconcileFromReads(host, inv.reads)
	}); p != nil {
		return nil, c.renderPanic(hook, p, stack)
	}

	c.stats.Renders++
	if c.onRender != nil {
		work := r.Stats()
		c.onRender(RenderStats{
			Hook:     hook,
			Duration: time.Since(start),
			Reads:    len(inv.reads),
			Children: work.Hosts,
			Removed:  work.Removed,
		})
	}
	return r.Queue().Flush(), nil
}

func (c *Context) renderFailed(hook string, err error, stack []byte) {
	c.stats.Failures++
	attrs := []any{"locator", hook, "error", err}
	if stack != nil {
		attrs = append(attrs, "stack", string(stack))
	}
	c.logger.Error("render failed", attrs...)
	if c.onRender != nil {
		c.onRender(RenderStats{Hook: hook, Err: err})
	}
}

// expand invokes inline function components ahead of reconciliation so
// every read happens, and every panic surfaces, before the document is
// touched.
func expand(v *vdom.VNode) *vdom.VNode {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case vdom.KindFunc:
		return expand(v.Func(v.Props, v.Children))
	case vdom.KindText:
		return v
	case vdom.KindDeferred:
		if v.Pending == nil {
			return v
		}
		cp := *v
		cp.Pending = expand(v.Pending)
		return &cp
	}
	if len(v.Children) == 0 {
		return v
	}
	cp := *v
	cp.Children = make([]*vdom.VNode, 0, len(v.Children))
	for _, child := range v.Children {
		if e := expand(child); e != nil {
			cp.Children = append(cp.Children, e)
		}
	}
	return &cp
}

// capture runs fn, returning a recovered panic and its stack.
func capture(fn func()) (recovered any, stack []byte) {
	defer func() {
		if r := recover(); r != nil {
			recovered = r
			stack = debug.Stack()
		}
	}()
	fn()
	return nil, nil
}

// guardFatal runs fn and converts a fatal panic into an error. Other
// panics propagate.
func guardFatal(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if errors.IsFatal(r) {
				err = r.(error)
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}

func panicError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", v)
}

// nearestHost returns n or its closest ancestor that is a component host.
func nearestHost(n dom.Node) dom.Node {
	for p := n; p != nil; p = p.Parent() {
		if dom.HasAttr(p, vdom.HookAttr) {
			return p
		}
	}
	return nil
}

// locatorArgs decodes the call arguments of a locator.
func (c *Context) locatorArgs(locator string) (map[string]any, error) {
	loc, err := symbol.Parse(locator)
	if err != nil {
		return nil, err
	}
	return loc.DecodeArgs(c)
}
