package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/resume/pkg/codec"
	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/reconcile"
	"github.com/vango-dev/resume/pkg/sched"
	"github.com/vango-dev/resume/pkg/subs"
	"github.com/vango-dev/resume/pkg/symbol"
	"github.com/vango-dev/resume/pkg/task"
	"github.com/vango-dev/resume/pkg/vdom"
)

// Options configures a Context.
type Options struct {
	// Importer loads render hooks and handlers. Required.
	Importer symbol.Importer

	// Loop is the task loop. A new loop is created when nil.
	Loop *task.Loop

	// Registry holds the document's objects. A private registry is
	// created when nil; sharing one between documents restored from
	// different snapshots can make identifiers collide.
	Registry *reactive.Registry

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// OnBatch observes every executed render batch.
	OnBatch func(sched.BatchStats)

	// OnRender observes every host render.
	OnRender func(RenderStats)
}

// RenderStats describes one host render.
type RenderStats struct {
	Hook     string
	Duration time.Duration
	Reads    int

	// Children is the number of nested host renders the pass enqueued.
	Children int

	// Removed is the number of live nodes the pass pruned.
	Removed int

	Err error
}

// Stats counts a context's work.
type Stats struct {
	Renders  int
	Failures int
	Batches  int
}

// Context is the runtime state of one document.
type Context struct {
	doc      dom.Document
	loop     *task.Loop
	importer symbol.Importer
	registry *reactive.Registry
	subs     *subs.Store
	sched    *sched.Scheduler
	logger   *slog.Logger
	onRender func(RenderStats)

	hydrated bool
	disposed bool
	stats    Stats
}

var (
	_ reactive.Owner  = (*Context)(nil)
	_ reconcile.Env   = (*Context)(nil)
	_ sched.Renderer  = (*Context)(nil)
	_ codec.Resolver  = (*Context)(nil)
)

// New creates the context of doc.
func New(doc dom.Document, opts Options) *Context {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "runtime")

	c := &Context{
		doc:      doc,
		loop:     opts.Loop,
		importer: opts.Importer,
		registry: opts.Registry,
		logger:   logger,
		onRender: opts.OnRender,
	}
	if c.loop == nil {
		c.loop = task.NewLoop(logger)
	}
	if c.registry == nil {
		c.registry = reactive.NewRegistry()
	}
	if c.importer == nil {
		c.importer = symbol.NewRegistry()
	}
	c.subs = subs.NewStore(logger.With("component", "subs"))

	schedOpts := []sched.Option{sched.WithLogger(logger.With("component", "sched"))}
	if opts.OnBatch != nil {
		schedOpts = append(schedOpts, sched.WithBatchHook(opts.OnBatch))
	}
	c.sched = sched.New(c, schedOpts...)
	return c
}

// Document implements reconcile.Env.
func (c *Context) Document() dom.Document { return c.doc }

// Loop implements reconcile.Env.
func (c *Context) Loop() *task.Loop { return c.loop }

// Registry returns the object registry.
func (c *Context) Registry() *reactive.Registry { return c.registry }

// Subscriptions returns the subscription store.
func (c *Context) Subscriptions() *subs.Store { return c.subs }

// Scheduler returns the render scheduler.
func (c *Context) Scheduler() *sched.Scheduler { return c.sched }

// Logger returns the context logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Stats returns the work counters.
func (c *Context) Stats() Stats {
	s := c.stats
	s.Batches = c.sched.Batches()
	return s
}

// Hydrated reports whether the state block has been consumed.
func (c *Context) Hydrated() bool { return c.hydrated }

// Hydrate revives the objects of the document's state block. It runs at
// most once; resolving a reference triggers it implicitly.
func (c *Context) Hydrate() error {
	if c.hydrated {
		return nil
	}
	c.hydrated = true

	objects, err := codec.Hydrate(c.doc, c.registry)
	if err != nil {
		return err
	}
	for _, o := range objects {
		o.Set(reactive.KeyOwner, c)
	}
	if len(objects) > 0 {
		c.logger.Debug("hydrated", "objects", len(objects))
	}
	return nil
}

func (c *Context) ensureHydrated() {
	if c.hydrated {
		return
	}
	if err := c.Hydrate(); err != nil {
		c.logger.Error("hydrate failed", "error", err)
	}
}

// Resolve implements codec.Resolver.
func (c *Context) Resolve(id string) (*reactive.Object, bool) {
	c.ensureHydrated()
	o := c.registry.Lookup(id)
	return o, o != nil
}

// Wrap returns the canonical object of a record, owned by this context.
// Other values are returned unchanged.
func (c *Context) Wrap(v any) any {
	c.ensureHydrated()
	w := c.registry.Wrap(v)
	if o, ok := w.(*reactive.Object); ok && o.Owner() == nil {
		o.Set(reactive.KeyOwner, c)
	}
	return w
}

// Object returns the object registered under id, creating it from init
// when absent.
func (c *Context) Object(id string, init reactive.Record) *reactive.Object {
	c.ensureHydrated()
	if o := c.registry.Lookup(id); o != nil {
		return o
	}
	if init == nil {
		init = reactive.Record{}
	}
	o := c.registry.WrapWithID(init, id)
	o.Set(reactive.KeyOwner, c)
	return o
}

// NotifySubscribers implements reactive.Owner: every host subscribed to
// id is scheduled for rendering.
func (c *Context) NotifySubscribers(id string) {
	if c.disposed {
		return
	}
	for _, host := range c.subs.Subscribers(c.doc, id) {
		c.sched.Notify(host)
	}
}

// Notify flags host for rendering in the next batch.
func (c *Context) Notify(host dom.Node) *task.Future {
	return c.sched.Notify(host)
}

// Props implements reconcile.Env.
func (c *Context) Props(el dom.Node) reconcile.PropStore {
	return c.PropsOf(el)
}

// PropsOf returns the attribute-backed property store of el.
func (c *Context) PropsOf(el dom.Node) *Props {
	return &Props{ctx: c, el: el}
}

// Mount reconciles nodes as the children of parent. The future settles
// once every component below has rendered.
func (c *Context) Mount(parent dom.Node, nodes ...*vdom.VNode) *task.Future {
	c.ensureHydrated()
	var out *task.Future
	err := guardFatal(func() {
		out = reconcile.New(c, nil).Mount(parent, nodes...)
	})
	if err != nil {
		return c.loop.Rejected(err)
	}
	return out
}

// Settle runs the loop until no render batch is queued or running and
// no task is left.
func (c *Context) Settle(ctx context.Context) error {
	for {
		if f := c.sched.Busy(); f != nil {
			if _, err := c.loop.Await(ctx, f); err != nil {
				if ctx.Err() != nil {
					return err
				}
				c.logger.Error("render batch failed", "error", err)
			}
			continue
		}
		if c.loop.RunUntilIdle() > 0 {
			continue
		}
		// Imports running off-loop post their results back.
		c.loop.Wait()
		if c.loop.Len() > 0 {
			continue
		}
		return ctx.Err()
	}
}

// Dehydrate settles pending renders and writes every object referenced
// by a subscription table into the state block. It returns the size of
// the encoded state.
func (c *Context) Dehydrate(ctx context.Context) (int, error) {
	if err := c.Settle(ctx); err != nil {
		return 0, err
	}
	c.ensureHydrated()

	state, missing := codec.Collect(c.registry, c.subs.IDs(c.doc))
	if len(missing) > 0 {
		c.logger.Warn("dropping unknown subscriptions", "ids", missing)
	}
	data, err := state.Marshal()
	if err != nil {
		return 0, err
	}
	codec.WriteState(c.doc, data)
	c.subs.Reset()
	c.logger.Debug("dehydrated", "objects", len(state), "bytes", len(data))
	return len(data), nil
}

// Dispose releases the context's objects and scheduler state.
func (c *Context) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	n := c.registry.Release(c)
	c.sched.Dispose()
	c.subs.Reset()
	c.logger.Debug("disposed", "objects", n)
}
