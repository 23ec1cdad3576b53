// Package vdom describes desired UI as immutable virtual node trees.
//
// A VNode is built fresh on every render, handed to the reconciler once
// and discarded. Elements are created with variadic factory functions
// whose arguments may be attributes, children, text, or nil:
//
//	Li(Class("item"), On("click", "/app/todo#toggle"),
//	    Span(Text(title)),
//	)
//
// # Component boundaries
//
// Component creates a host element whose render hook is named by a
// symbol locator. Its children are projected content: the hook's output
// decides where each child goes by emitting Slot markers.
//
//	Component("todo-item", "/app/todo#Item", Attr{"item", obj},
//	    Span(SlotName("icon"), Text("*")),
//	)
//
// Func embeds a function that is invoked synchronously during
// reconciliation. Deferred renders a placeholder until a future settles.
package vdom
