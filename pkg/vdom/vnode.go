package vdom

import (
	"strings"

	"github.com/vango-dev/resume/pkg/task"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement  VKind = iota // <div>, <button>, component hosts
	KindText                  // Plain text node
	KindFragment              // Grouping without wrapper
	KindFunc                  // Inline function component
	KindSlot                  // Projection point inside a component render
	KindHost                  // Attributes and children for the host itself
	KindDeferred              // Value of a future
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindFunc:
		return "Func"
	case KindSlot:
		return "Slot"
	case KindHost:
		return "Host"
	case KindDeferred:
		return "Deferred"
	default:
		return "Unknown"
	}
}

// FuncComponent renders props and children to a node.
type FuncComponent func(props Props, children []*VNode) *VNode

// VNode is the virtual DOM node.
type VNode struct {
	Kind     VKind
	Tag      string   // Element tag name
	Props    Props    // Attributes, by name
	Children []*VNode // Child nodes, never nil for container kinds
	Key      string   // Stable key (informational; matching is positional)
	Text     string   // For KindText

	// Hook is the render-hook locator of a component boundary.
	Hook string

	// Name is the slot name of a KindSlot node.
	Name string

	// Func is the function of a KindFunc node.
	Func FuncComponent

	// Future, Pending and OnError describe a KindDeferred node.
	Future  *task.Future
	Pending *VNode
	OnError func(error) *VNode
}

// Props holds attribute values by attribute name.
type Props map[string]any

// IsComponent reports whether the node is a component boundary.
func (v *VNode) IsComponent() bool {
	return v != nil && v.Kind == KindElement && v.Hook != ""
}

// Handlers returns the event names the node handles.
func (v *VNode) Handlers() []string {
	if v == nil {
		return nil
	}
	var events []string
	for key := range v.Props {
		if strings.HasPrefix(key, EventPrefix) {
			events = append(events, strings.TrimPrefix(key, EventPrefix))
		}
	}
	return events
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}
