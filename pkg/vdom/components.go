package vdom

import "github.com/vango-dev/resume/pkg/task"

// Reserved element and attribute names used by components.
const (
	// HookAttr holds the render-hook locator on a component host.
	HookAttr = "rs:component"

	// SlotTag is the element a projection point is rendered as.
	SlotTag = "rs-slot"

	// SlotAttr selects the slot a projected child goes to.
	SlotAttr = "slot"
)

// Component creates a component boundary: a host element with tag whose
// render hook is hook. Attributes become host props; children are the
// projected content.
func Component(tag, hook string, args ...any) *VNode {
	node := createElement(tag, args)
	node.Hook = hook
	return node
}

// Use embeds an inline function component.
func Use(fn FuncComponent, args ...any) *VNode {
	node := &VNode{
		Kind:     KindFunc,
		Func:     fn,
		Props:    make(Props),
		Children: make([]*VNode, 0),
	}
	apply(node, args)
	return node
}

// Func embeds a function without props.
func Func(render func() *VNode) *VNode {
	return Use(func(Props, []*VNode) *VNode { return render() })
}

// Slot marks where projected content named name goes. The empty name is
// the default slot. Attributes are written onto the projection element.
func Slot(name string, args ...any) *VNode {
	node := &VNode{
		Kind:     KindSlot,
		Tag:      SlotTag,
		Name:     name,
		Props:    make(Props),
		Children: make([]*VNode, 0),
	}
	apply(node, args)
	return node
}

// Host writes attributes onto the component's own host element; its
// children become the host's rendered children.
func Host(args ...any) *VNode {
	node := &VNode{
		Kind:     KindHost,
		Props:    make(Props),
		Children: make([]*VNode, 0),
	}
	apply(node, args)
	return node
}

// Deferred renders pending until f settles, then the value of f. The
// value may be a *VNode, a string or nil. A rejection renders
// onError(err), or nothing when onError is nil.
func Deferred(f *task.Future, pending *VNode, onError func(error) *VNode) *VNode {
	return &VNode{
		Kind:     KindDeferred,
		Future:   f,
		Pending:  pending,
		OnError:  onError,
		Children: make([]*VNode, 0),
	}
}
