package reconcile

import (
	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/vdom"
)

// Reserved markup.
const (
	// UnslottedAttr marks the template holding unprojected content.
	UnslottedAttr = "rs:unslotted"

	// StateAttr marks the state block, which cursors never touch.
	StateAttr = "rs:state"

	// Deferred boundary comments.
	DeferredOpen  = "rs:v"
	DeferredClose = "/rs:v"
)

// Cursor is the traversal state of one level of reconciliation.
type Cursor struct {
	r      *Reconciler
	parent dom.Node
	next   dom.Node
	end    dom.Node

	// match restricts the live nodes the cursor owns; nil owns all.
	match func(dom.Node) bool

	// proj resolves slot markers; nil outside component renders.
	proj *projection

	closed  bool
	onClose func()
}

func (r *Reconciler) newCursor(parent, first, end dom.Node, proj *projection) *Cursor {
	return &Cursor{r: r, parent: parent, next: first, end: end, proj: proj}
}

// Parent returns the live node whose children the cursor walks.
func (c *Cursor) Parent() dom.Node {
	return c.parent
}

// Closed reports whether Close was called.
func (c *Cursor) Closed() bool {
	return c.closed
}

// owns reports whether n belongs to this cursor's sequence.
func (c *Cursor) owns(n dom.Node) bool {
	if n.Type() == dom.ElementNode {
		if _, ok := n.Attr(StateAttr); ok {
			return false
		}
		if isUnslotted(n) {
			return false
		}
	}
	return c.match == nil || c.match(n)
}

// peek returns the next owned live node, or nil at the end.
func (c *Cursor) peek() dom.Node {
	for c.next != nil && c.next != c.end && !c.owns(c.next) {
		c.next = c.next.NextSibling()
	}
	if c.next == c.end {
		return nil
	}
	return c.next
}

// insert places n at the cursor position and moves past it.
func (c *Cursor) insert(n dom.Node) {
	ref := c.peek()
	if ref == nil {
		ref = c.end
	}
	c.parent.InsertBefore(n, ref)
	c.next = n.NextSibling()
}

// replace puts n where old is and moves past it.
func (c *Cursor) replace(old, n dom.Node) {
	c.parent.InsertBefore(n, old)
	c.remove(old)
	c.next = n.NextSibling()
}

// consume moves past n, which must be the node returned by peek.
func (c *Cursor) consume(n dom.Node) {
	c.next = n.NextSibling()
}

func (c *Cursor) remove(n dom.Node) {
	if c.proj != nil {
		c.proj.rescue(n)
	}
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
}

func (c *Cursor) assertOpen() {
	if c.closed {
		errors.Fatal("R001")
	}
}

// Close removes every owned live node after the cursor position.
func (c *Cursor) Close() {
	if c.closed {
		errors.Fatal("R005")
	}
	c.closed = true
	for n := c.peek(); n != nil; n = c.peek() {
		c.next = n.NextSibling()
		c.r.removed++
		c.remove(n)
	}
	if c.onClose != nil {
		c.onClose()
	}
}

func isUnslotted(n dom.Node) bool {
	if n == nil || n.Type() != dom.ElementNode || n.Tag() != "template" {
		return false
	}
	_, ok := n.Attr(UnslottedAttr)
	return ok
}

func isSlotElement(n dom.Node) bool {
	return n != nil && n.Type() == dom.ElementNode && n.Tag() == vdom.SlotTag
}

func isHost(n dom.Node) bool {
	return dom.HasAttr(n, vdom.HookAttr)
}

// slotName is the slot a live projected node is assigned to.
func slotName(n dom.Node) string {
	if n.Type() != dom.ElementNode {
		return ""
	}
	name, _ := n.Attr(vdom.SlotAttr)
	return name
}
