// Package sched coalesces render requests into batches.
//
// Each document has one Scheduler. Notify flags a host with RenderAttr
// and joins the pending batch, creating it when none is queued. The batch
// runs as one task: it collects every flagged host, clears the flags,
// renders each host and settles once all of their renders have.
package sched

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/task"
)

// RenderAttr flags a host as render-pending.
const RenderAttr = "rs:render"

// Renderer renders component hosts of one document.
type Renderer interface {
	Document() dom.Document
	Loop() *task.Loop
	RenderHost(host dom.Node) *task.Future
}

// BatchStats describes one executed batch.
type BatchStats struct {
	Seq      int
	Hosts    int
	Duration time.Duration
	Err      error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithBatchHook registers fn to observe every settled batch.
func WithBatchHook(fn func(BatchStats)) Option {
	return func(s *Scheduler) { s.onBatch = fn }
}

// Scheduler is the per-document render batch state.
type Scheduler struct {
	r       Renderer
	pending *task.Future
	running *task.Future
	seq     int
	onBatch func(BatchStats)
	logger  *slog.Logger
}

// New creates a scheduler for r.
func New(r Renderer, opts ...Option) *Scheduler {
	s := &Scheduler{
		r:      r,
		logger: slog.Default().With("component", "sched"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify flags host for rendering and returns the batch that will
// render it.
func (s *Scheduler) Notify(host dom.Node) *task.Future {
	if !dom.HasAttr(host, RenderAttr) {
		host.SetAttr(RenderAttr, "")
	}
	return s.ScheduleBatch()
}

// ScheduleBatch returns the queued batch, queueing one if needed.
func (s *Scheduler) ScheduleBatch() *task.Future {
	if s.pending != nil {
		return s.pending
	}
	loop := s.r.Loop()
	f, resolve, reject := loop.NewFuture()
	s.pending = f
	loop.Post(func() { s.run(f, resolve, reject) })
	return f
}

// Pending returns the queued batch that has not started, or nil.
func (s *Scheduler) Pending() *task.Future {
	return s.pending
}

// Busy returns a batch that is queued or still rendering, or nil when
// the scheduler is idle.
func (s *Scheduler) Busy() *task.Future {
	if s.pending != nil {
		return s.pending
	}
	return s.running
}

// Batches returns the number of batches executed.
func (s *Scheduler) Batches() int {
	return s.seq
}

// Dispose drops scheduler state. A queued batch still runs but finds
// nothing to do once the document is gone.
func (s *Scheduler) Dispose() {
	s.pending = nil
	s.running = nil
}

func (s *Scheduler) run(f *task.Future, resolve func(any), reject func(error)) {
	// Notifications from here on start a new batch.
	if s.pending == f {
		s.pending = nil
	}
	s.running = f
	s.seq++
	seq := s.seq
	start := time.Now()

	hosts := s.r.Document().QueryAttr(RenderAttr)
	for _, host := range hosts {
		host.RemoveAttr(RenderAttr)
	}
	futures := make([]*task.Future, 0, len(hosts))
	for _, host := range hosts {
		futures = append(futures, s.renderHost(host))
	}
	s.logger.Debug("render batch", "seq", seq, "hosts", len(hosts))

	s.r.Loop().All(futures).OnSettle(func(_ any, err error) {
		if s.running == f {
			s.running = nil
		}
		stats := BatchStats{Seq: seq, Hosts: len(hosts), Duration: time.Since(start), Err: err}
		if s.onBatch != nil {
			s.onBatch(stats)
		}
		if err != nil {
			s.logger.Error("render batch failed", "seq", seq, "error", err)
			reject(err)
			return
		}
		resolve(stats)
	})
}

// renderHost starts the render of host. A panic rejects that host's
// render so the batch still settles.
func (s *Scheduler) renderHost(host dom.Node) (f *task.Future) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("render <%s>: %v", host.Tag(), r)
			}
			s.logger.Error("render panic", "host", host.Tag(), "error", err)
			f = s.r.Loop().Rejected(err)
		}
	}()
	return s.r.RenderHost(host)
}
