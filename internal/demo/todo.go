package demo

import (
	"strings"

	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/runtime"
	"github.com/vango-dev/resume/pkg/vdom"
)

// NewTodoList returns a list record holding one open item per text.
func NewTodoList(texts ...string) reactive.Record {
	items := make([]any, 0, len(texts))
	for _, text := range texts {
		items = append(items, NewTodo(text))
	}
	return reactive.Record{"items": items}
}

// NewTodo returns an open todo item.
func NewTodo(text string) reactive.Record {
	return reactive.Record{"text": text, "completed": false}
}

// TodoList returns the list component bound to list.
func TodoList(list *reactive.Object) *vdom.VNode {
	return vdom.Component("todo-list", TodoApp, vdom.Prop("list", list))
}

// renderTodoApp reads only the item slice, so toggling an item leaves
// the list host alone.
func renderTodoApp(inv *runtime.Invocation) *vdom.VNode {
	items, _ := inv.Object("list").Get("items").([]any)
	return vdom.Section(vdom.Class("todos"),
		vdom.P(vdom.Class("count"), vdom.Textf("%d items", len(items))),
		vdom.Ul(vdom.Range(items, func(item any, _ int) *vdom.VNode {
			return vdom.Component("todo-item", TodoItem, vdom.Prop("item", item))
		})),
		vdom.Button(vdom.Class("add"), vdom.On("add", TodoAdd), "Add"),
		vdom.Button(vdom.Class("clear"), vdom.On("click", TodoClear), "Clear completed"),
	)
}

func renderTodoItem(inv *runtime.Invocation) *vdom.VNode {
	item := inv.Object("item")
	completed, _ := item.Get("completed").(bool)
	text, _ := item.Get("text").(string)
	return vdom.Li(vdom.Class("todo", vdom.ClassIf(completed, "completed")),
		vdom.Span(text),
		vdom.Button(vdom.Class("toggle"), vdom.On("click", TodoToggle), "Toggle"),
	)
}

func toggleTodo(inv *runtime.Invocation) error {
	item := inv.Object("item")
	completed, _ := item.Get("completed").(bool)
	item.Set("completed", !completed)
	return nil
}

// addTodo appends an item. The payload is the text, either as a string
// or as {"text": "..."}.
func addTodo(inv *runtime.Invocation) error {
	var text string
	switch p := inv.Payload().(type) {
	case string:
		text = p
	case map[string]any:
		text, _ = p["text"].(string)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	list := inv.Object("list")
	items, _ := list.Get("items").([]any)
	next := append(append([]any(nil), items...), NewTodo(text))
	list.Set("items", next)
	return nil
}

func clearCompleted(inv *runtime.Invocation) error {
	list := inv.Object("list")
	items, _ := list.Get("items").([]any)
	next := make([]any, 0, len(items))
	for _, item := range items {
		if o, ok := item.(*reactive.Object); ok {
			if done, _ := o.Peek("completed").(bool); done {
				continue
			}
		}
		next = append(next, item)
	}
	if len(next) != len(items) {
		list.Set("items", next)
	}
	return nil
}
