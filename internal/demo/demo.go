package demo

import (
	"net/http"

	"github.com/vango-dev/resume/pkg/runtime"
	"github.com/vango-dev/resume/pkg/server"
	"github.com/vango-dev/resume/pkg/symbol"
	"github.com/vango-dev/resume/pkg/vdom"
)

// Symbol locators.
const (
	TodoApp       = "demo/todo#app"
	TodoItem      = "demo/todo#item"
	TodoToggle    = "demo/todo#toggle"
	TodoAdd       = "demo/todo#add"
	TodoClear     = "demo/todo#clearCompleted"
	CounterView   = "demo/counter#view"
	CounterChange = "demo/counter#change"
)

// Register adds every demo symbol to reg.
func Register(reg *symbol.Registry) {
	reg.Register(TodoApp, runtime.RenderFunc(renderTodoApp))
	reg.Register(TodoItem, runtime.RenderFunc(renderTodoItem))
	reg.Register(TodoToggle, runtime.HandlerFunc(toggleTodo))
	reg.Register(TodoAdd, runtime.HandlerFunc(addTodo))
	reg.Register(TodoClear, runtime.HandlerFunc(clearCompleted))
	reg.Register(CounterView, runtime.RenderFunc(renderCounter))
	reg.Register(CounterChange, runtime.HandlerFunc(changeCounter))
}

// Symbols returns a registry holding the demo symbols.
func Symbols(opts ...symbol.Option) *symbol.Registry {
	reg := symbol.NewRegistry(opts...)
	Register(reg)
	return reg
}

// Pages returns the demo pages by route pattern.
func Pages() map[string]server.Page {
	return map[string]server.Page{
		"/":        TodoPage,
		"/counter": CounterPage,
	}
}

// TodoPage renders the todo list with its initial items.
func TodoPage(ctx *runtime.Context, r *http.Request) *vdom.VNode {
	list := ctx.Object("todos", NewTodoList("Write the server", "Dehydrate the page", "Resume on click"))
	return document("Todos", TodoList(list))
}

// CounterPage renders a counter starting at zero.
func CounterPage(ctx *runtime.Context, r *http.Request) *vdom.VNode {
	return document("Counter", Counter(1))
}

func document(title string, body *vdom.VNode) *vdom.VNode {
	return vdom.Main(vdom.Class("demo"),
		vdom.H1(title),
		body,
	)
}
