package subs

import (
	"log/slog"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/reactive"
)

// Attr is the attribute holding a host's serialized subscription table.
const Attr = "rs:obj"

// Table is the in-memory view of one host's subscriptions. Objects holds
// the wrappers attached during this process; entries parsed from the
// attribute of a resumed document have no object until re-attached.
type Table struct {
	entries map[string]*Entry
	objects map[string]*reactive.Object
}

func newTable() *Table {
	return &Table{
		entries: make(map[string]*Entry),
		objects: make(map[string]*reactive.Object),
	}
}

// Entries returns a copy of the entries sorted by identifier.
func (t *Table) Entries() []Entry {
	out, _ := Parse(t.format())
	return out
}

// Get returns the entry for id.
func (t *Table) Get(id string) (Entry, bool) {
	e, ok := t.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

func (t *Table) format() string {
	entries := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		entries = append(entries, *e)
	}
	return Format(entries)
}

// Store caches subscription tables per host node and writes every change
// through to the host's Attr attribute, which stays the source of truth.
type Store struct {
	tables map[dom.Node]*Table
	logger *slog.Logger
}

// NewStore creates an empty store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default().With("component", "subs")
	}
	return &Store{
		tables: make(map[dom.Node]*Table),
		logger: logger,
	}
}

// Table returns the table of host, loading it from the attribute on first
// use. A malformed attribute is logged and treated as empty.
func (s *Store) Table(host dom.Node) *Table {
	if t, ok := s.tables[host]; ok {
		return t
	}
	t := newTable()
	if raw, ok := host.Attr(Attr); ok {
		entries, err := Parse(raw)
		if err != nil {
			s.logger.Warn("discarding malformed subscription table", "host", host.Tag(), "error", err)
		}
		for _, e := range entries {
			e := e
			t.entries[e.ID] = &e
		}
	}
	s.tables[host] = t
	return t
}

// Attach adds count references to id in host's table, marking it
// subscribed when requested. A subscribed entry is never unsubscribed by
// Attach.
func (s *Store) Attach(host dom.Node, id string, obj *reactive.Object, subscribed bool, count int) {
	errors.Assert(ValidID(id), "R003", "identifier %q", id)

	t := s.Table(host)
	e, ok := t.entries[id]
	if !ok {
		e = &Entry{ID: id}
		t.entries[id] = e
	}
	e.Count += count
	if subscribed {
		e.Subscribed = true
	}
	if obj != nil {
		t.objects[id] = obj
	}
	s.flush(host, t)
}

// Release drops one reference to id. The entry is removed once it has no
// references and is not subscribed.
func (s *Store) Release(host dom.Node, id string) {
	t := s.Table(host)
	e, ok := t.entries[id]
	if !ok {
		return
	}
	if e.Count > 0 {
		e.Count--
	}
	if !e.live() {
		delete(t.entries, id)
		delete(t.objects, id)
	}
	s.flush(host, t)
}

// ReconcileFromReads makes the subscribed set of host equal to the
// identifiers in reads. Entries no longer read are unsubscribed and
// dropped when nothing else retains them. It reports whether the table
// changed.
func (s *Store) ReconcileFromReads(host dom.Node, reads reactive.ReadSet) bool {
	for id := range reads {
		if !ValidID(id) {
			errors.Fatal("R003", "identifier %q", id)
		}
	}
	t := s.Table(host)
	before := t.format()

	for id, e := range t.entries {
		if _, read := reads[id]; read {
			e.Subscribed = true
			continue
		}
		e.Subscribed = false
		if e.Count <= 0 {
			delete(t.entries, id)
			delete(t.objects, id)
		}
	}
	for id, obj := range reads {
		if _, ok := t.entries[id]; !ok {
			t.entries[id] = &Entry{ID: id, Subscribed: true}
		}
		if obj != nil {
			t.objects[id] = obj
		}
	}

	s.flush(host, t)
	return t.format() != before
}

// Subscribed reports whether host re-renders on writes to id.
func (s *Store) Subscribed(host dom.Node, id string) bool {
	e, ok := s.Table(host).entries[id]
	return ok && e.Subscribed
}

// Subscribers returns the hosts in doc subscribed to id, in document
// order.
func (s *Store) Subscribers(doc dom.Document, id string) []dom.Node {
	var out []dom.Node
	for _, host := range doc.QueryAttr(Attr) {
		if s.Subscribed(host, id) {
			out = append(out, host)
		}
	}
	return out
}

// IDs returns every live identifier referenced by any host in doc.
func (s *Store) IDs(doc dom.Document) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, host := range doc.QueryAttr(Attr) {
		for id := range s.Table(host).entries {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// Forget drops the cached table of host without touching the document.
func (s *Store) Forget(host dom.Node) {
	delete(s.tables, host)
}

// Reset drops every cached table. Attributes are kept so the tables can
// be reloaded from the document.
func (s *Store) Reset() {
	s.tables = make(map[dom.Node]*Table)
}

// flush writes the table through to the attribute when it differs.
func (s *Store) flush(host dom.Node, t *Table) {
	next := t.format()
	cur, has := host.Attr(Attr)
	switch {
	case next == "" && has:
		host.RemoveAttr(Attr)
	case next != "" && (!has || cur != next):
		host.SetAttr(Attr, next)
	}
}
