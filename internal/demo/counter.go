package demo

import (
	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/runtime"
	"github.com/vango-dev/resume/pkg/vdom"
)

// Counter returns a counter component that moves by step per click.
func Counter(step int) *vdom.VNode {
	return vdom.Component("x-counter", CounterView, vdom.Prop("step", step))
}

// renderCounter keeps the count in host-scoped state. The decrement
// button passes its direction as a locator argument.
func renderCounter(inv *runtime.Invocation) *vdom.VNode {
	n, _ := inv.UseState("count", reactive.Record{"n": 0.0}).Get("n").(float64)
	return vdom.Div(vdom.Class("counter"),
		vdom.Button(vdom.Class("dec"), vdom.On("click", CounterChange+"?dir=-1"), "-"),
		vdom.Span(vdom.Class("value"), vdom.Textf("%g", n)),
		vdom.Button(vdom.Class("inc"), vdom.On("click", CounterChange+"?dir=1"), "+"),
	)
}

func changeCounter(inv *runtime.Invocation) error {
	dir, _ := inv.Arg("dir").(float64)
	step, ok := inv.Props().Get("step").(float64)
	if !ok {
		step = 1
	}
	state := inv.UseState("count", nil)
	n, _ := state.Get("n").(float64)
	state.Set("n", n+dir*step)
	return nil
}
