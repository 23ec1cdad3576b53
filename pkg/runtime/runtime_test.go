package runtime

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/codec"
	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/dom/htmldom"
	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/subs"
	"github.com/vango-dev/resume/pkg/symbol"
	"github.com/vango-dev/resume/pkg/vdom"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// todoSymbols registers a two-level todo list: the list renders one
// item component per entry and each item toggles itself.
func todoSymbols() *symbol.Registry {
	reg := symbol.NewRegistry(symbol.WithLogger(quietLogger()))
	reg.Register("app#todoList", RenderFunc(func(inv *Invocation) *vdom.VNode {
		items, _ := inv.Object("list").Get("items").([]any)
		return vdom.Ul(vdom.Range(items, func(item any, _ int) *vdom.VNode {
			return vdom.Component("todo-item", "app#todoItem", vdom.Prop("item", item))
		}))
	}))
	reg.Register("app#todoItem", RenderFunc(func(inv *Invocation) *vdom.VNode {
		item := inv.Object("item")
		done, _ := item.Get("done").(bool)
		text, _ := item.Get("text").(string)
		return vdom.Li(vdom.Prop("data-done", done),
			vdom.Text(text),
			vdom.Button(vdom.On("click", "app#toggle"), "toggle"),
		)
	}))
	reg.Register("app#toggle", HandlerFunc(func(inv *Invocation) error {
		item := inv.Object("item")
		done, _ := item.Get("done").(bool)
		item.Set("done", !done)
		return nil
	}))
	return reg
}

type fixture struct {
	doc     *htmldom.Document
	ctx     *Context
	renders []string
}

func newFixture(t *testing.T, doc *htmldom.Document, importer symbol.Importer) *fixture {
	t.Helper()
	f := &fixture{doc: doc}
	f.ctx = New(doc, Options{
		Importer: importer,
		Logger:   quietLogger(),
		OnRender: func(s RenderStats) { f.renders = append(f.renders, s.Hook) },
	})
	return f
}

func (f *fixture) settle(t *testing.T) {
	t.Helper()
	if err := f.ctx.Settle(context.Background()); err != nil {
		t.Fatalf("settle: %v", err)
	}
}

func (f *fixture) buttons() []dom.Node {
	return f.doc.QueryAttr(vdom.EventPrefix + "click")
}

func (f *fixture) done() []string {
	var out []string
	for _, li := range f.doc.QueryAttr("data-done") {
		v, _ := li.Attr("data-done")
		out = append(out, v)
	}
	return out
}

func mountTodos(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, htmldom.New(), todoSymbols())
	list := f.ctx.Object("list", reactive.Record{
		"items": []any{
			reactive.Record{"text": "milk", "done": false},
			reactive.Record{"text": "eggs", "done": false},
		},
	})
	root := f.doc.CreateElement("main")
	f.doc.Body().AppendChild(root)

	mounted := f.ctx.Mount(root, vdom.Component("todo-list", "app#todoList", vdom.Prop("list", list)))
	f.settle(t)
	if _, err := mounted.Result(); !mounted.Settled() || err != nil {
		t.Fatalf("mount settled=%v err=%v", mounted.Settled(), err)
	}
	return f
}

func dispatch(t *testing.T, f *fixture, el dom.Node, event string) {
	t.Helper()
	res := f.ctx.Dispatch(el, event, nil)
	f.settle(t)
	if v, err := res.Result(); err != nil || v != true {
		t.Fatalf("dispatch = %v, %v", v, err)
	}
}

func TestMountRendersNestedComponents(t *testing.T) {
	f := mountTodos(t)

	if got := f.done(); len(got) != 2 || got[0] != "false" || got[1] != "false" {
		t.Fatalf("done = %v", got)
	}
	if !strings.Contains(f.doc.String(), "milk") || !strings.Contains(f.doc.String(), "eggs") {
		t.Errorf("item text missing: %s", f.doc.String())
	}
	if want := []string{"app#todoList", "app#todoItem", "app#todoItem"}; strings.Join(f.renders, ",") != strings.Join(want, ",") {
		t.Errorf("renders = %v, want %v", f.renders, want)
	}

	for _, host := range f.doc.QueryAttr(vdom.HookAttr) {
		if !dom.HasAttr(host, subs.Attr) {
			t.Errorf("host %s has no subscription table", host.Tag())
		}
	}
}

func TestRenderStatsReportReconcileWork(t *testing.T) {
	doc := htmldom.New()
	stats := map[string]RenderStats{}
	ctx := New(doc, Options{
		Importer: todoSymbols(),
		Logger:   quietLogger(),
		OnRender: func(s RenderStats) { stats[s.Hook] = s },
	})
	list := ctx.Object("list", reactive.Record{
		"items": []any{
			reactive.Record{"text": "milk", "done": false},
			reactive.Record{"text": "eggs", "done": false},
		},
	})
	ctx.Mount(doc.Body(), vdom.Component("todo-list", "app#todoList", vdom.Prop("list", list)))
	if err := ctx.Settle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := stats["app#todoList"]; got.Children != 2 || got.Removed != 0 {
		t.Fatalf("first render stats = %+v", got)
	}

	list.Set("items", []any{reactive.Record{"text": "tea", "done": false}})
	if err := ctx.Settle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := stats["app#todoList"]; got.Removed != 1 {
		t.Errorf("second render removed = %d, want 1", got.Removed)
	}
}

func TestToggleRendersOnlySubscribedHost(t *testing.T) {
	f := mountTodos(t)
	f.renders = nil

	dispatch(t, f, f.buttons()[1], "click")

	if got := f.done(); got[0] != "false" || got[1] != "true" {
		t.Errorf("done = %v, want [false true]", got)
	}
	if len(f.renders) != 1 || f.renders[0] != "app#todoItem" {
		t.Errorf("renders = %v, want a single item render", f.renders)
	}
	if n := len(f.doc.QueryAttr("rs:render")); n != 0 {
		t.Errorf("%d hosts still flagged for rendering", n)
	}
}

func TestDispatchWithoutHandler(t *testing.T) {
	f := mountTodos(t)
	li := f.doc.QueryAttr("data-done")[0]

	res := f.ctx.Dispatch(li, "click", nil)
	f.settle(t)
	if v, err := res.Result(); err != nil || v != false {
		t.Errorf("dispatch = %v, %v, want false", v, err)
	}
}

func TestDehydrateAndResume(t *testing.T) {
	f := mountTodos(t)

	n, err := f.ctx.Dehydrate(context.Background())
	if err != nil || n == 0 {
		t.Fatalf("dehydrate = %d, %v", n, err)
	}
	html := f.doc.String()
	if !strings.Contains(html, `type="rs/json"`) {
		t.Fatalf("state block missing: %s", html)
	}

	doc, err := htmldom.ParseString(html)
	if err != nil {
		t.Fatal(err)
	}
	g := newFixture(t, doc, todoSymbols())
	if g.ctx.Hydrated() {
		t.Fatalf("hydrated before first use")
	}

	dispatch(t, g, g.buttons()[0], "click")

	if !g.ctx.Hydrated() {
		t.Errorf("dispatch did not hydrate")
	}
	if codec.FindState(doc) != nil {
		t.Errorf("state block not removed after hydrate")
	}
	if got := g.done(); got[0] != "true" || got[1] != "false" {
		t.Errorf("done = %v, want [true false]", got)
	}
	if len(g.renders) != 1 || g.renders[0] != "app#todoItem" {
		t.Errorf("resumed renders = %v, want a single item render", g.renders)
	}

	// Objects revived from the state block keep their shared identity.
	list := g.ctx.Registry().Lookup("list")
	if list == nil {
		t.Fatalf("list object not revived")
	}
	items := list.Get("items").([]any)
	first := items[0].(*reactive.Object)
	if first.Get("done") != true {
		t.Errorf("list does not observe the toggled item")
	}
}

func TestRenderFailureLeavesMarkup(t *testing.T) {
	reg := symbol.NewRegistry()
	fail := false
	reg.Register("app#flaky", func(inv *Invocation) *vdom.VNode {
		if fail {
			panic("boom")
		}
		return vdom.P("ok")
	})
	f := newFixture(t, htmldom.New(), reg)
	root := f.doc.Body()
	f.ctx.Mount(root, vdom.Component("x-flaky", "app#flaky"))
	f.settle(t)

	host := f.doc.QueryAttr(vdom.HookAttr)[0]
	before := htmldom.RenderNode(host)

	fail = true
	batch := f.ctx.Notify(host)
	f.settle(t)

	if _, err := batch.Result(); err != nil {
		t.Errorf("batch rejected by a recoverable failure: %v", err)
	}
	if after := htmldom.RenderNode(host); after != before {
		t.Errorf("markup changed:\n%s\n%s", before, after)
	}
	if s := f.ctx.Stats(); s.Failures != 1 || s.Renders != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestMissingSymbolIsRecoverable(t *testing.T) {
	f := newFixture(t, htmldom.New(), symbol.NewRegistry())
	mounted := f.ctx.Mount(f.doc.Body(), vdom.Component("x-gone", "app#gone", "content"))
	f.settle(t)
	if _, err := mounted.Result(); err != nil {
		t.Errorf("mount rejected: %v", err)
	}
	if f.ctx.Stats().Failures != 1 {
		t.Errorf("failure not counted")
	}
}

func TestFatalRenderErrorRejects(t *testing.T) {
	reg := symbol.NewRegistry()
	reg.Register("app#misuse", RenderFunc(func(inv *Invocation) *vdom.VNode {
		inv.Object("state").Set("$bogus", 1)
		return nil
	}))
	f := newFixture(t, htmldom.New(), reg)
	state := f.ctx.Wrap(reactive.Record{}).(*reactive.Object)

	mounted := f.ctx.Mount(f.doc.Body(), vdom.Component("x-bad", "app#misuse", vdom.Prop("state", state)))
	f.settle(t)

	_, err := mounted.Result()
	if !errors.HasCode(err, "R002") {
		t.Errorf("err = %v, want R002", err)
	}
}

func TestInvalidIdentifierRejectsMount(t *testing.T) {
	reg := symbol.NewRegistry(symbol.WithLogger(quietLogger()))
	reg.Register("app#settings", RenderFunc(func(inv *Invocation) *vdom.VNode {
		theme, _ := inv.Context().Object("app settings", reactive.Record{"theme": "dark"}).Get("theme").(string)
		return vdom.P(theme)
	}))
	f := newFixture(t, htmldom.New(), reg)

	mounted := f.ctx.Mount(f.doc.Body(), vdom.Component("x-settings", "app#settings"))
	f.settle(t)

	if !mounted.Settled() {
		t.Fatalf("mount did not settle")
	}
	if _, err := mounted.Result(); !errors.HasCode(err, "R003") {
		t.Errorf("err = %v, want R003", err)
	}
}

func TestInvalidIdentifierRejectsBatch(t *testing.T) {
	reg := symbol.NewRegistry(symbol.WithLogger(quietLogger()))
	reg.Register("app#settings", RenderFunc(func(inv *Invocation) *vdom.VNode {
		if on, _ := inv.Object("flags").Get("broken").(bool); on {
			inv.Context().Object("app settings", nil).Get("theme")
		}
		return vdom.P("ok")
	}))
	f := newFixture(t, htmldom.New(), reg)
	flags := f.ctx.Object("flags", reactive.Record{"broken": false})

	mounted := f.ctx.Mount(f.doc.Body(), vdom.Component("x-settings", "app#settings", vdom.Prop("flags", flags)))
	f.settle(t)
	if _, err := mounted.Result(); !mounted.Settled() || err != nil {
		t.Fatalf("mount settled=%v err=%v", mounted.Settled(), err)
	}

	flags.Set("broken", true)
	batch := f.ctx.Scheduler().Busy()
	if batch == nil {
		t.Fatalf("no batch scheduled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := f.ctx.Settle(ctx); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !batch.Settled() {
		t.Fatalf("batch did not settle")
	}
	if _, err := batch.Result(); !errors.HasCode(err, "R003") {
		t.Errorf("batch err = %v, want R003", err)
	}
	if f.ctx.Scheduler().Busy() != nil {
		t.Errorf("scheduler still busy")
	}
	if _, err := f.ctx.Dehydrate(ctx); err != nil {
		t.Errorf("dehydrate after failed batch: %v", err)
	}
}

func TestCurrentInvocation(t *testing.T) {
	func() {
		defer func() {
			if err, ok := recover().(error); !ok || !errors.HasCode(err, "R011") {
				t.Errorf("expected R011 panic, got %v", err)
			}
		}()
		CurrentInvocation()
	}()

	reg := symbol.NewRegistry()
	var seen *Invocation
	reg.Register("app#inspect", RenderFunc(func(inv *Invocation) *vdom.VNode {
		seen = CurrentInvocation()
		return nil
	}))
	f := newFixture(t, htmldom.New(), reg)
	f.ctx.Mount(f.doc.Body(), vdom.Component("x-inspect", "app#inspect?label=hi"))
	f.settle(t)

	if seen == nil || seen.Host() == nil || seen.Host().Tag() != "x-inspect" {
		t.Fatalf("invocation = %+v", seen)
	}
	if seen.Arg("label") != "hi" {
		t.Errorf("arg label = %v", seen.Arg("label"))
	}
}

func TestUseStatePersistsOnHost(t *testing.T) {
	reg := symbol.NewRegistry()
	reg.Register("app#counter", RenderFunc(func(inv *Invocation) *vdom.VNode {
		n, _ := inv.UseState("count", reactive.Record{"n": 0.0}).Get("n").(float64)
		return vdom.Button(vdom.On("click", "app#inc"), vdom.Textf("%g", n))
	}))
	reg.Register("app#inc", func(inv *Invocation) {
		s := inv.UseState("count", nil)
		n, _ := s.Get("n").(float64)
		s.Set("n", n+1)
	})
	f := newFixture(t, htmldom.New(), reg)
	f.ctx.Mount(f.doc.Body(), vdom.Component("x-counter", "app#counter"))
	f.settle(t)

	host := f.doc.QueryAttr(vdom.HookAttr)[0]
	ref, ok := host.Attr("rs:use-count")
	if !ok || !strings.HasPrefix(ref, codec.RefPrefix+"count:") {
		t.Fatalf("state reference = %q", ref)
	}

	button := f.buttons()[0]
	dispatch(t, f, button, "click")
	dispatch(t, f, button, "click")

	if got := htmldom.RenderNode(button); !strings.Contains(got, ">2<") {
		t.Errorf("button = %s", got)
	}
	if again, _ := host.Attr("rs:use-count"); again != ref {
		t.Errorf("state reference changed: %q -> %q", ref, again)
	}
}

func TestPropsTrackReferences(t *testing.T) {
	f := newFixture(t, htmldom.New(), symbol.NewRegistry())
	el := f.doc.CreateElement("div")
	f.doc.Body().AppendChild(el)
	props := f.ctx.PropsOf(el)

	rec := reactive.Record{"a": 1.0}
	if !props.Assign("data", rec) {
		t.Fatalf("first assign reported no change")
	}
	o := f.ctx.Registry().Find(rec)
	if o == nil {
		t.Fatalf("record was not wrapped")
	}
	if got, _ := el.Attr("data"); got != codec.RefPrefix+o.ID() {
		t.Errorf("data = %q", got)
	}
	if props.Get("data") != o {
		t.Errorf("Get did not resolve the reference")
	}
	if props.Assign("data", o) {
		t.Errorf("same reference reported a change")
	}
	if e, ok := f.ctx.Subscriptions().Table(el).Get(o.ID()); !ok || e.Count != 1 || e.Subscribed {
		t.Errorf("entry = %+v, %v", e, ok)
	}

	props.Set("data", nil)
	if dom.HasAttr(el, "data") || dom.HasAttr(el, subs.Attr) {
		t.Errorf("remove left %s", htmldom.RenderNode(el))
	}
}

func TestPropsLocatorArguments(t *testing.T) {
	f := newFixture(t, htmldom.New(), symbol.NewRegistry())
	el := f.doc.CreateElement("button")
	f.doc.Body().AppendChild(el)
	o := f.ctx.Object("item", reactive.Record{"done": false})

	refs := &referenceList{}
	loc, err := symbol.New("app#toggle", map[string]any{"item": o}, refs)
	if err != nil {
		t.Fatal(err)
	}
	f.ctx.PropsOf(el).Assign(vdom.EventPrefix+"click", loc.String())

	if _, ok := f.ctx.Subscriptions().Table(el).Get("item"); !ok {
		t.Errorf("locator argument not retained: %s", htmldom.RenderNode(el))
	}
	f.ctx.PropsOf(el).Remove(vdom.EventPrefix + "click")
	if f.ctx.Subscriptions().Table(el).Len() != 0 {
		t.Errorf("locator argument not released")
	}
}

func TestDispose(t *testing.T) {
	f := mountTodos(t)
	f.ctx.Dispose()
	if n := f.ctx.Registry().Len(); n != 0 {
		t.Errorf("%d objects left after dispose", n)
	}
	res := f.ctx.Dispatch(f.buttons()[0], "click", nil)
	if v, _ := res.Result(); v != false {
		t.Errorf("dispatch on disposed context = %v", v)
	}
}
