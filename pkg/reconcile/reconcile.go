package reconcile

import (
	"sort"
	"strings"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/codec"
	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/task"
	"github.com/vango-dev/resume/pkg/vdom"
)

// PropStore is the reactive property store of one live element.
// Assign and Remove report whether the element changed.
type PropStore interface {
	Assign(name string, value any) bool
	Remove(name string) bool
}

// Env is what the reconciler needs from the document runtime.
type Env interface {
	Document() dom.Document
	Loop() *task.Loop
	Props(el dom.Node) PropStore

	// RenderHost schedules the render hook of a component host.
	RenderHost(host dom.Node) *task.Future
}

// Stats counts the work of one reconciler.
type Stats struct {
	Hosts   int // component renders enqueued
	Removed int // live nodes pruned by Close
}

// Reconciler applies virtual trees for one pass. Nested component
// renders and deferred values are collected in its queue.
type Reconciler struct {
	env     Env
	queue   *task.Queue
	hosts   int
	removed int
}

// New creates a reconciler adding pending work to queue. A nil queue
// gets a fresh one.
func New(env Env, queue *task.Queue) *Reconciler {
	if queue == nil {
		queue = env.Loop().NewQueue()
	}
	return &Reconciler{env: env, queue: queue}
}

// Queue returns the render queue of this pass.
func (r *Reconciler) Queue() *task.Queue {
	return r.queue
}

// Stats returns the work done so far.
func (r *Reconciler) Stats() Stats {
	return Stats{Hosts: r.hosts, Removed: r.removed}
}

// Cursor returns a cursor over all children of parent.
func (r *Reconciler) Cursor(parent dom.Node) *Cursor {
	return r.newCursor(parent, parent.FirstChild(), nil, nil)
}

// HostCursor returns the cursor for reconciling the render output of a
// component host. Slot markers resolve against the host's projected
// content; closing the cursor also settles slots that were not rendered.
func (r *Reconciler) HostCursor(host dom.Node) *Cursor {
	proj := r.newProjection(host)
	c := r.newCursor(host, host.FirstChild(), nil, proj)
	c.onClose = proj.finish
	return c
}

// Mount reconciles nodes as the complete children of parent and returns
// a future settling once every nested render has completed.
func (r *Reconciler) Mount(parent dom.Node, nodes ...*vdom.VNode) *task.Future {
	c := r.Cursor(parent)
	r.Reconcile(c, nodes)
	c.Close()
	return r.queue.Flush()
}

// RenderHost reconciles the output of host's render hook. A KindHost
// root writes its props onto the host itself.
func (r *Reconciler) RenderHost(host dom.Node, out *vdom.VNode) {
	c := r.HostCursor(host)
	if out != nil && out.Kind == vdom.KindHost {
		r.applyProps(host, out.Props, true)
		r.Reconcile(c, out.Children)
	} else {
		r.Reconcile(c, []*vdom.VNode{out})
	}
	c.Close()
}

// Reconcile consumes nodes at the cursor, in order.
func (r *Reconciler) Reconcile(c *Cursor, nodes []*vdom.VNode) {
	c.assertOpen()
	for _, v := range nodes {
		r.node(c, v)
	}
}

func (r *Reconciler) node(c *Cursor, v *vdom.VNode) {
	if v == nil {
		return
	}
	switch v.Kind {
	case vdom.KindText:
		r.text(c, v.Text)
	case vdom.KindElement:
		if v.IsComponent() {
			r.component(c, v)
		} else {
			r.element(c, v)
		}
	case vdom.KindFragment:
		r.Reconcile(c, v.Children)
	case vdom.KindFunc:
		r.node(c, v.Func(v.Props, v.Children))
	case vdom.KindSlot:
		r.slot(c, v)
	case vdom.KindHost:
		if c.proj == nil {
			errors.Fatal("R004", "host marker outside a component render")
		}
		r.applyProps(c.proj.host, v.Props, true)
		r.Reconcile(c, v.Children)
	case vdom.KindDeferred:
		r.deferred(c, v)
	}
}

func (r *Reconciler) text(c *Cursor, text string) {
	next := c.peek()
	if next != nil && next.Type() == dom.TextNode {
		if next.Data() != text {
			next.SetData(text)
		}
		c.consume(next)
		return
	}
	r.place(c, next, r.env.Document().CreateText(text))
}

// place inserts a new node at the cursor, replacing next unless next is
// a slot element still waiting to be rendered.
func (r *Reconciler) place(c *Cursor, next, n dom.Node) {
	if next == nil || (c.proj != nil && c.proj.pending(next)) {
		c.insert(n)
		return
	}
	c.replace(next, n)
}

// ensureElement reuses the element at the cursor when it has tag and
// the same host-ness, and creates it otherwise.
func (r *Reconciler) ensureElement(c *Cursor, tag string, host bool) (dom.Node, bool) {
	next := c.peek()
	if next != nil && next.Type() == dom.ElementNode &&
		strings.EqualFold(next.Tag(), tag) && isHost(next) == host {
		c.consume(next)
		return next, false
	}
	el := r.env.Document().CreateElement(tag)
	r.place(c, next, el)
	return el, true
}

func (r *Reconciler) element(c *Cursor, v *vdom.VNode) {
	el, _ := r.ensureElement(c, v.Tag, false)
	r.applyProps(el, v.Props, false)
	if vdom.IsVoidElement(v.Tag) {
		return
	}
	child := r.newCursor(el, el.FirstChild(), nil, c.proj)
	r.Reconcile(child, v.Children)
	child.Close()
}

func (r *Reconciler) component(c *Cursor, v *vdom.VNode) {
	host, created := r.ensureElement(c, v.Tag, true)
	changed := created
	if r.env.Props(host).Assign(vdom.HookAttr, v.Hook) {
		changed = true
	}
	if r.applyProps(host, v.Props, true) {
		changed = true
	}

	m := r.newSlotMap(host, c.proj)
	r.project(m, v.Children)
	m.Close()

	if changed {
		r.hosts++
		r.queue.Add(r.env.RenderHost(host))
	}
}

// project routes projected content to slot cursors. Inline functions
// are expanded first since their output decides the slot.
func (r *Reconciler) project(m *SlotMap, nodes []*vdom.VNode) {
	for _, v := range nodes {
		if v == nil {
			continue
		}
		switch v.Kind {
		case vdom.KindFragment:
			r.project(m, v.Children)
		case vdom.KindFunc:
			r.project(m, []*vdom.VNode{v.Func(v.Props, v.Children)})
		default:
			r.node(m.Cursor(contentSlot(v)), v)
		}
	}
}

func (r *Reconciler) slot(c *Cursor, v *vdom.VNode) {
	if c.proj == nil {
		errors.Fatal("R004", "slot %q", v.Name)
	}
	el, _ := c.proj.take(v.Name)
	if next := c.peek(); next == el {
		c.consume(el)
	} else {
		c.insert(el)
	}
	if name, _ := el.Attr("name"); name != v.Name {
		el.SetAttr("name", v.Name)
	}
	r.applyProps(el, v.Props, true)
}

// applyProps writes props through the element's property store. Plain
// elements also lose attributes absent from props; hosts only merge.
// Reserved "rs:" attributes are never removed.
func (r *Reconciler) applyProps(el dom.Node, props vdom.Props, merge bool) bool {
	store := r.env.Props(el)
	changed := false

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := make(map[string]bool, len(keys))
	for _, k := range keys {
		name := codec.KebabCase(k)
		names[name] = true
		if store.Assign(name, props[k]) {
			changed = true
		}
	}
	if merge {
		return changed
	}
	for _, a := range el.Attrs() {
		if names[a.Name] || strings.HasPrefix(a.Name, "rs:") {
			continue
		}
		if store.Remove(a.Name) {
			changed = true
		}
	}
	return changed
}
