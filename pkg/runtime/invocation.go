package runtime

import (
	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/reactive"
)

// statePrefix names the host attribute holding a UseState reference.
const statePrefix = "rs:use-"

// Invocation is the context of one render hook or event handler call.
// While a render hook runs it is the active read tracker.
type Invocation struct {
	ctx     *Context
	host    dom.Node
	element dom.Node
	locator string
	event   string
	payload any
	args    map[string]any
	reads   reactive.ReadSet
}

var _ reactive.Tracker = (*Invocation)(nil)

func (c *Context) invocation(host dom.Node, locator string, el dom.Node, event string, payload any) (*Invocation, error) {
	args, err := c.locatorArgs(locator)
	if err != nil {
		return nil, err
	}
	if el == nil {
		el = host
	}
	return &Invocation{
		ctx:     c,
		host:    host,
		element: el,
		locator: locator,
		event:   event,
		payload: payload,
		args:    args,
		reads:   make(reactive.ReadSet),
	}, nil
}

// CurrentInvocation returns the invocation whose hook or handler is
// running. Calling it anywhere else is a fatal error.
func CurrentInvocation() *Invocation {
	if inv, ok := reactive.CurrentTracker().(*Invocation); ok {
		return inv
	}
	errors.Fatal("R011")
	return nil
}

// Track implements reactive.Tracker.
func (inv *Invocation) Track(o *reactive.Object) {
	inv.reads.Track(o)
}

// Context returns the document context.
func (inv *Invocation) Context() *Context { return inv.ctx }

// Host returns the component host, or nil for handlers outside any
// component.
func (inv *Invocation) Host() dom.Node { return inv.host }

// Element returns the element an event was dispatched to; for renders
// it is the host.
func (inv *Invocation) Element() dom.Node { return inv.element }

// Locator returns the locator the hook or handler was loaded from.
func (inv *Invocation) Locator() string { return inv.locator }

// Event returns the dispatched event name, or "" during renders.
func (inv *Invocation) Event() string { return inv.event }

// Payload returns the event payload.
func (inv *Invocation) Payload() any { return inv.payload }

// Arg returns a call argument of the locator.
func (inv *Invocation) Arg(name string) any { return inv.args[name] }

// Args returns all call arguments.
func (inv *Invocation) Args() map[string]any { return inv.args }

// Props returns the host's property store.
func (inv *Invocation) Props() *Props {
	if inv.host == nil {
		errors.Fatal("R011", "no component host")
	}
	return inv.ctx.PropsOf(inv.host)
}

// Object returns the object a host prop references, or nil.
func (inv *Invocation) Object(prop string) *reactive.Object {
	o, _ := inv.Props().Get(prop).(*reactive.Object)
	return o
}

// UseState returns the component-private state object called name,
// creating it from init on first use. Its identifier is namespaced by
// name and the host keeps a reference to it, so it survives
// dehydration.
func (inv *Invocation) UseState(name string, init reactive.Record) *reactive.Object {
	props := inv.Props()
	attr := statePrefix + name
	if o, ok := props.Get(attr).(*reactive.Object); ok {
		return o
	}
	if init == nil {
		init = reactive.Record{}
	}
	o := inv.ctx.registry.WrapNamespaced(init, name)
	if o.Owner() == nil {
		o.Set(reactive.KeyOwner, inv.ctx)
	}
	props.Assign(attr, o)
	return o
}

// Wrap is Context.Wrap.
func (inv *Invocation) Wrap(v any) any { return inv.ctx.Wrap(v) }
