package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/dom/htmldom"
	"github.com/vango-dev/resume/pkg/runtime"
	"github.com/vango-dev/resume/pkg/snapshot"
	"github.com/vango-dev/resume/pkg/vdom"
)

// SnapshotAttr holds the snapshot identifier on the <html> element.
const SnapshotAttr = "rs:snapshot"

// Page renders the body of a fresh document.
type Page func(ctx *runtime.Context, r *http.Request) *vdom.VNode

// DispatchRequest names one event for a resumed document.
type DispatchRequest struct {
	// Event is the event name, without the "on:" prefix.
	Event string `json:"event"`

	// Index selects the target among the elements handling Event, in
	// document order.
	Index int `json:"index"`

	// Payload is passed to the handler.
	Payload any `json:"payload,omitempty"`
}

// Result is a stored document.
type Result struct {
	// ID identifies the snapshot the document was saved as.
	ID string

	// HTML is the dehydrated document.
	HTML []byte

	// StateBytes is the size of the state block.
	StateBytes int
}

func (s *Server) newContext(doc dom.Document) *runtime.Context {
	return runtime.New(doc, runtime.Options{
		Importer: s.config.Importer,
		Logger:   s.logger,
		OnBatch:  s.metrics.observeBatch,
		OnRender: s.metrics.observeRender,
	})
}

// Render renders page into a new document and stores it.
func (s *Server) Render(ctx context.Context, page Page, r *http.Request) (res *Result, err error) {
	ctx, span := s.startSpan(ctx, "resume.render", attribute.String("resume.path", r.URL.Path))
	defer func() { endSpan(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, s.config.SettleTimeout)
	defer cancel()

	doc := htmldom.New()
	rt := s.newContext(doc)
	defer rt.Dispose()

	mounted := rt.Mount(doc.Body(), page(rt, r))
	if err := rt.Settle(ctx); err != nil {
		return nil, err
	}
	if !mounted.Settled() {
		return nil, fmt.Errorf("render %s: %w", r.URL.Path, errUnsettled)
	}
	if _, err := mounted.Result(); err != nil {
		return nil, err
	}
	return s.save(ctx, doc, rt)
}

// Resume loads snapshot id, dispatches req and stores the result under
// a new identifier. The old snapshot is deleted.
func (s *Server) Resume(ctx context.Context, id string, req DispatchRequest) (res *Result, err error) {
	ctx, span := s.startSpan(ctx, "resume.dispatch",
		attribute.String("resume.snapshot", id),
		attribute.String("resume.event", req.Event),
		attribute.Int("resume.index", req.Index),
	)
	defer func() {
		if err != nil {
			s.metrics.observeDispatchError(err)
		}
		endSpan(span, err)
	}()

	if req.Event == "" {
		return nil, fmt.Errorf("%w: missing event", ErrBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.SettleTimeout)
	defer cancel()

	data, err := s.config.Store.Load(ctx, id)
	if err != nil {
		s.metrics.observeSnapshot("miss")
		return nil, err
	}
	s.metrics.observeSnapshot("load")

	doc, err := htmldom.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", id, err)
	}
	targets := doc.QueryAttr(vdom.EventPrefix + req.Event)
	if req.Index < 0 || req.Index >= len(targets) {
		return nil, fmt.Errorf("%w: %s #%d of %d", ErrNoTarget, req.Event, req.Index, len(targets))
	}

	rt := s.newContext(doc)
	defer rt.Dispose()

	dispatched := rt.Dispatch(targets[req.Index], req.Event, req.Payload)
	if err := rt.Settle(ctx); err != nil {
		return nil, err
	}
	if !dispatched.Settled() {
		return nil, fmt.Errorf("dispatch %s: %w", req.Event, errUnsettled)
	}
	if _, err := dispatched.Result(); err != nil {
		return nil, err
	}

	res, err = s.save(ctx, doc, rt)
	if err != nil {
		return nil, err
	}
	if err := s.config.Store.Delete(ctx, id); err != nil {
		s.logger.Warn("delete superseded snapshot", "id", id, "error", err)
	}
	return res, nil
}

// save dehydrates doc under a fresh snapshot identifier and stores it.
func (s *Server) save(ctx context.Context, doc *htmldom.Document, rt *runtime.Context) (res *Result, err error) {
	ctx, span := s.startSpan(ctx, "resume.dehydrate")
	defer func() { endSpan(span, err) }()

	id := snapshot.NewID()
	if root := doc.DocumentElement(); root != nil {
		root.SetAttr(SnapshotAttr, id)
	}
	n, err := rt.Dehydrate(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.observeDehydrate(n)
	span.SetAttributes(attribute.Int("resume.state_bytes", n))

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return nil, err
	}
	if err := s.config.Store.Save(ctx, id, buf.Bytes(), time.Now().Add(s.config.SnapshotTTL)); err != nil {
		return nil, err
	}
	s.metrics.observeSnapshot("save")
	s.logger.Debug("snapshot saved", "id", id, "bytes", buf.Len(), "state", n)

	return &Result{ID: id, HTML: buf.Bytes(), StateBytes: n}, nil
}
