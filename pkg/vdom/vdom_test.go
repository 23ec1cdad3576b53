package vdom

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/resume/pkg/task"
)

func TestVKindString(t *testing.T) {
	tests := []struct {
		kind VKind
		want string
	}{
		{KindElement, "Element"},
		{KindText, "Text"},
		{KindFragment, "Fragment"},
		{KindFunc, "Func"},
		{KindSlot, "Slot"},
		{KindHost, "Host"},
		{KindDeferred, "Deferred"},
		{VKind(255), "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("VKind.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateElement(t *testing.T) {
	node := Li(
		Class("item", "", "done"),
		Key(7),
		nil,
		On("click", "/app#toggle"),
		"title",
		3,
		Span(Text("x")),
		[]*VNode{nil, Text("tail")},
	)

	if node.Kind != KindElement || node.Tag != "li" {
		t.Fatalf("node = %v %q", node.Kind, node.Tag)
	}
	if node.Key != "7" {
		t.Errorf("Key = %q, want 7", node.Key)
	}
	wantProps := Props{"class": "item done", "on:click": "/app#toggle"}
	if diff := cmp.Diff(wantProps, node.Props); diff != "" {
		t.Errorf("Props mismatch (-want +got):\n%s", diff)
	}

	var texts []string
	for _, c := range node.Children {
		texts = append(texts, c.Kind.String()+":"+c.Text+c.Tag)
	}
	want := []string{"Text:title", "Text:3", "Element:span", "Text:tail"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateElementUnsupportedArgument(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unsupported argument")
		}
	}()
	Div(struct{}{})
}

func TestComponentBoundary(t *testing.T) {
	node := Component("todo-item", "./todo#Item", Prop("index", 2.0),
		Span(SlotName("icon")),
	)
	if !node.IsComponent() {
		t.Fatalf("component node not recognized")
	}
	if node.Hook != "./todo#Item" || node.Props["index"] != 2.0 {
		t.Errorf("node = %+v", node)
	}
	if Div().IsComponent() {
		t.Errorf("plain element reported as component")
	}
}

func TestHandlers(t *testing.T) {
	node := Button(On("click", "a#b"), On("dblclick", "a#c"), ID("x"))
	got := node.Handlers()
	sort.Strings(got)
	if diff := cmp.Diff([]string{"click", "dblclick"}, got); diff != "" {
		t.Errorf("Handlers mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten(t *testing.T) {
	a, b, c := Text("a"), Text("b"), Text("c")
	slot := Slot("")
	got := Flatten([]*VNode{a, nil, Fragment(b, Fragment(nil, c)), slot})
	want := []*VNode{a, b, c, slot}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestUseAndDeferred(t *testing.T) {
	fn := func(p Props, children []*VNode) *VNode {
		return Div(Class(p["class"].(string)), children)
	}
	node := Use(fn, Class("box"), "child")
	out := node.Func(node.Props, node.Children)
	if out.Props["class"] != "box" || len(out.Children) != 1 {
		t.Errorf("rendered = %+v", out)
	}

	loop := task.NewLoop(nil)
	f := loop.Resolved("done")
	d := Deferred(f, Text("loading"), nil)
	if d.Kind != KindDeferred || d.Future != f || d.Pending.Text != "loading" {
		t.Errorf("deferred = %+v", d)
	}
}

func TestChecked(t *testing.T) {
	if !Checked(false).IsEmpty() {
		t.Errorf("Checked(false) should be empty")
	}
	if a := Checked(true); a.Key != "checked" {
		t.Errorf("Checked(true) = %+v", a)
	}
	if got := Class("a", ClassIf(false, "b"), ClassIf(true, "c")); got.Value != "a c" {
		t.Errorf("Class = %v", got.Value)
	}
}

func TestElementAnyTag(t *testing.T) {
	custom := Element("x-card", Class("big"), "body")
	if custom.Kind != KindElement || custom.Tag != "x-card" || custom.Props["class"] != "big" {
		t.Errorf("custom = %v %q %v", custom.Kind, custom.Tag, custom.Props)
	}
	if len(custom.Children) != 1 || custom.Children[0].Text != "body" {
		t.Errorf("children = %v", custom.Children)
	}
	if !IsVoidElement(Element("input").Tag) || IsVoidElement(custom.Tag) {
		t.Errorf("void element detection")
	}
}
