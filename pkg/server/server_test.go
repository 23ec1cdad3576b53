package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/runtime"
	"github.com/vango-dev/resume/pkg/snapshot"
	"github.com/vango-dev/resume/pkg/symbol"
	"github.com/vango-dev/resume/pkg/vdom"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func counterSymbols() *symbol.Registry {
	reg := symbol.NewRegistry(symbol.WithLogger(quietLogger()))
	reg.Register("app#counter", runtime.RenderFunc(func(inv *runtime.Invocation) *vdom.VNode {
		n, _ := inv.UseState("count", reactive.Record{"n": 0.0}).Get("n").(float64)
		return vdom.Div(
			vdom.Span(vdom.Class("count"), vdom.Textf("count=%g", n)),
			vdom.Button(vdom.On("click", "app#inc"), "+"),
		)
	}))
	reg.Register("app#inc", func(inv *runtime.Invocation) {
		s := inv.UseState("count", nil)
		n, _ := s.Get("n").(float64)
		s.Set("n", n+1)
	})
	reg.Register("app#fail", runtime.HandlerFunc(func(inv *runtime.Invocation) error {
		return io.ErrUnexpectedEOF
	}))
	return reg
}

func counterPage(ctx *runtime.Context, r *http.Request) *vdom.VNode {
	return vdom.Main(
		vdom.Component("x-counter", "app#counter"),
		vdom.Button(vdom.On("boom", "app#fail"), "fail"),
	)
}

type fixture struct {
	srv   *Server
	store *snapshot.MemoryStore
	ts    *httptest.Server
}

func newFixture(t *testing.T, metrics *Metrics) *fixture {
	t.Helper()
	store := snapshot.NewMemoryStore()
	srv := New(&Config{
		Store:    store,
		Importer: counterSymbols(),
		Metrics:  metrics,
		Logger:   quietLogger(),
	})
	srv.Handle("/", counterPage)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		store.Close()
	})
	return &fixture{srv: srv, store: store, ts: ts}
}

func (f *fixture) get(t *testing.T) (string, string) {
	t.Helper()
	resp, err := http.Get(f.ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / = %d: %s", resp.StatusCode, body)
	}
	return resp.Header.Get(SnapshotHeader), string(body)
}

func (f *fixture) dispatch(t *testing.T, id string, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(f.ts.URL+"/_rs/dispatch/"+id, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, string(data)
}

func TestPageRendersDehydratedDocument(t *testing.T) {
	f := newFixture(t, nil)
	id, body := f.get(t)

	if !snapshot.ValidID(id) {
		t.Fatalf("snapshot header = %q", id)
	}
	for _, want := range []string{
		"count=0",
		`rs:snapshot="` + id + `"`,
		`rs:component="app#counter"`,
		`rs:state`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("document missing %q:\n%s", want, body)
		}
	}
	if f.store.Count() != 1 {
		t.Errorf("stored snapshots = %d, want 1", f.store.Count())
	}
}

func TestDispatchResumesSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	id, _ := f.get(t)

	resp, body := f.dispatch(t, id, `{"event":"click"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dispatch = %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "count=1") {
		t.Errorf("document after click:\n%s", body)
	}
	next := resp.Header.Get(SnapshotHeader)
	if next == "" || next == id {
		t.Fatalf("next snapshot = %q, previous %q", next, id)
	}

	resp, body = f.dispatch(t, next, `{"event":"click"}`)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "count=2") {
		t.Fatalf("second dispatch = %d:\n%s", resp.StatusCode, body)
	}

	if resp, _ := f.dispatch(t, id, `{"event":"click"}`); resp.StatusCode != http.StatusNotFound {
		t.Errorf("superseded snapshot = %d, want 404", resp.StatusCode)
	}
	if f.store.Count() != 1 {
		t.Errorf("stored snapshots = %d, want 1", f.store.Count())
	}
}

func TestDispatchErrors(t *testing.T) {
	f := newFixture(t, nil)
	id, _ := f.get(t)

	tests := []struct {
		name string
		id   string
		body string
		want int
	}{
		{"unknown snapshot", snapshot.NewID(), `{"event":"click"}`, http.StatusNotFound},
		{"invalid id", "not-a-uuid", `{"event":"click"}`, http.StatusBadRequest},
		{"bad json", id, `{"event":`, http.StatusBadRequest},
		{"missing event", id, `{}`, http.StatusBadRequest},
		{"no target", id, `{"event":"click","index":3}`, http.StatusBadRequest},
		{"unhandled event", id, `{"event":"keydown"}`, http.StatusBadRequest},
		{"handler error", id, `{"event":"boom"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.dispatch(t, tt.id, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.want, body)
			}
		})
	}

	// Failed dispatches leave the snapshot resumable.
	if resp, body := f.dispatch(t, id, `{"event":"click"}`); resp.StatusCode != http.StatusOK {
		t.Errorf("dispatch after errors = %d: %s", resp.StatusCode, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	f := newFixture(t, metrics)
	id, _ := f.get(t)
	f.dispatch(t, id, `{"event":"click"}`)
	f.dispatch(t, snapshot.NewID(), `{"event":"click"}`)

	resp, err := http.Get(f.ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	body := string(data)

	for _, want := range []string{
		`resume_http_requests_total{route="dispatch",status="200"} 1`,
		`resume_http_requests_total{route="dispatch",status="404"} 1`,
		`resume_dispatch_errors_total{kind="not_found"} 1`,
		`resume_snapshots_total{op="save"} 2`,
		`resume_renders_total{status="ok"}`,
		`resume_render_batches_total`,
		`resume_child_renders_total`,
		`resume_removed_nodes_total`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestLiveConnection(t *testing.T) {
	f := newFixture(t, nil)
	id, _ := f.get(t)

	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/_rs/live/" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send := func(req DispatchRequest) LiveMessage {
		t.Helper()
		if err := conn.WriteJSON(req); err != nil {
			t.Fatalf("write: %v", err)
		}
		var msg LiveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}

	first := send(DispatchRequest{Event: "click"})
	if first.Error != "" || !strings.Contains(first.HTML, "count=1") {
		t.Fatalf("first message = %+v", first)
	}
	failed := send(DispatchRequest{Event: "click", Index: 9})
	if failed.Error == "" || failed.ID != first.ID {
		t.Fatalf("failed message = %+v", failed)
	}
	second := send(DispatchRequest{Event: "click"})
	if !strings.Contains(second.HTML, "count=2") || second.ID == first.ID {
		t.Fatalf("second message = %+v", second)
	}
}

func TestResumeDirect(t *testing.T) {
	srv := New(&Config{Importer: counterSymbols(), Logger: quietLogger()})
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	res, err := srv.Render(r.Context(), counterPage, r)
	if err != nil {
		t.Fatal(err)
	}
	if res.StateBytes == 0 {
		t.Errorf("state block is empty")
	}
	next, err := srv.Resume(r.Context(), res.ID, DispatchRequest{Event: "click"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(next.HTML, []byte("count=1")) {
		t.Errorf("resumed document:\n%s", next.HTML)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{snapshot.ErrNotFound, http.StatusNotFound},
		{ErrNoTarget, http.StatusBadRequest},
		{ErrBadRequest, http.StatusBadRequest},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestDispatchRequestJSON(t *testing.T) {
	var req DispatchRequest
	if err := json.Unmarshal([]byte(`{"event":"input","index":2,"payload":{"value":"x"}}`), &req); err != nil {
		t.Fatal(err)
	}
	if req.Event != "input" || req.Index != 2 {
		t.Errorf("request = %+v", req)
	}
	if p, ok := req.Payload.(map[string]any); !ok || p["value"] != "x" {
		t.Errorf("payload = %#v", req.Payload)
	}
}

func TestPageWithMisuseIsNotSaved(t *testing.T) {
	reg := counterSymbols()
	reg.Register("app#settings", runtime.RenderFunc(func(inv *runtime.Invocation) *vdom.VNode {
		theme, _ := inv.Context().Object("app settings", reactive.Record{"theme": "dark"}).Get("theme").(string)
		return vdom.P(theme)
	}))
	store := snapshot.NewMemoryStore()
	defer store.Close()
	srv := New(&Config{Store: store, Importer: reg, Logger: quietLogger()})
	srv.Handle("/settings", func(ctx *runtime.Context, r *http.Request) *vdom.VNode {
		return vdom.Component("x-settings", "app#settings")
	})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if store.Count() != 0 {
		t.Errorf("stored snapshots = %d, want 0", store.Count())
	}
}
