package reconcile

import (
	"fmt"

	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/task"
	"github.com/vango-dev/resume/pkg/vdom"
)

// deferred reconciles a future's value between a pair of boundary
// comments. Until the future settles the pending node is shown; the
// settled value is reconciled on a later task and joins the queue.
func (r *Reconciler) deferred(c *Cursor, v *vdom.VNode) {
	start, stop := r.boundary(c)
	proj := c.proj

	fill := func(node *vdom.VNode) {
		if start.Parent() == nil || stop.Parent() != start.Parent() {
			// Boundary was pruned meanwhile.
			return
		}
		inner := r.newCursor(start.Parent(), start.NextSibling(), stop, proj)
		r.Reconcile(inner, []*vdom.VNode{node})
		inner.Close()
	}

	if v.Future == nil {
		fill(nil)
		return
	}
	if v.Future.Settled() {
		fill(r.settledNode(v))
		return
	}

	fill(v.Pending)
	done, resolve, reject := r.env.Loop().NewFuture()
	v.Future.OnSettle(func(any, error) {
		defer func() {
			if p := recover(); p != nil {
				reject(&task.PanicError{Value: p})
			}
		}()
		fill(r.settledNode(v))
		resolve(nil)
	})
	r.queue.Add(done)
}

func (r *Reconciler) settledNode(v *vdom.VNode) *vdom.VNode {
	value, err := v.Future.Result()
	if err != nil {
		if v.OnError == nil {
			return nil
		}
		return v.OnError(err)
	}
	switch x := value.(type) {
	case nil:
		return nil
	case *vdom.VNode:
		return x
	case string:
		return vdom.Text(x)
	default:
		return vdom.Text(fmt.Sprint(x))
	}
}

// boundary returns the comment pair at the cursor, creating it when the
// live node there is not an opening comment, and moves past it.
func (r *Reconciler) boundary(c *Cursor) (start, stop dom.Node) {
	next := c.peek()
	if next != nil && next.Type() == dom.CommentNode && next.Data() == DeferredOpen {
		if stop = matchingClose(next); stop != nil {
			c.next = stop.NextSibling()
			return next, stop
		}
	}
	doc := r.env.Document()
	start = doc.CreateComment(DeferredOpen)
	stop = doc.CreateComment(DeferredClose)
	r.place(c, next, start)
	c.parent.InsertBefore(stop, start.NextSibling())
	c.next = stop.NextSibling()
	return start, stop
}

func matchingClose(start dom.Node) dom.Node {
	depth := 0
	for n := start.NextSibling(); n != nil; n = n.NextSibling() {
		if n.Type() != dom.CommentNode {
			continue
		}
		switch n.Data() {
		case DeferredOpen:
			depth++
		case DeferredClose:
			if depth == 0 {
				return n
			}
			depth--
		}
	}
	return nil
}
