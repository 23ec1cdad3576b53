package subs

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/dom/htmldom"
	"github.com/vango-dev/resume/pkg/reactive"
)

func TestTokenRoundTrip(t *testing.T) {
	tests := []struct {
		entry Entry
		token string
	}{
		{Entry{ID: "a", Count: 1}, "a"},
		{Entry{ID: "a", Count: 1, Subscribed: true}, "!a"},
		{Entry{ID: "b", Count: 3, Subscribed: true}, "3#!b"},
		{Entry{ID: "todo:1f", Count: 0, Subscribed: true}, "0#!todo:1f"},
		{Entry{ID: "c", Count: 2}, "2#c"},
	}
	for _, tt := range tests {
		if got := tt.entry.Token(); got != tt.token {
			t.Errorf("Token(%+v) = %q, want %q", tt.entry, got, tt.token)
		}
		parsed, err := Parse(tt.token)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.token, err)
		}
		if diff := cmp.Diff([]Entry{tt.entry}, parsed); diff != "" {
			t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.token, diff)
		}
	}
}

func TestFormatCanonical(t *testing.T) {
	got := Format([]Entry{
		{ID: "z", Count: 1, Subscribed: true},
		{ID: "dead", Count: 0},
		{ID: "a", Count: 2},
	})
	if want := "2#a !z"; got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, s := range []string{"x#a", "-1#a", "!", "2#"} {
		if _, err := Parse(s); !errors.HasCode(err, "R033") {
			t.Errorf("Parse(%q) error = %v, want R033", s, err)
		}
	}
}

func newHost(t *testing.T) (*htmldom.Document, *Store) {
	t.Helper()
	doc := htmldom.New()
	host := doc.CreateElement("div")
	doc.Body().AppendChild(host)
	return doc, NewStore(nil)
}

func TestReconcileFromReads(t *testing.T) {
	doc, s := newHost(t)
	host := doc.Body().FirstChild()
	r := reactive.NewRegistry()
	a := r.WrapRecord(reactive.Record{})
	b := r.WrapRecord(reactive.Record{})

	s.ReconcileFromReads(host, reactive.ReadSet{a.ID(): a, b.ID(): b})
	want := []Entry{
		{ID: a.ID(), Subscribed: true},
		{ID: b.ID(), Subscribed: true},
	}
	if a.ID() > b.ID() {
		want[0], want[1] = want[1], want[0]
	}
	if diff := cmp.Diff(want, s.Table(host).Entries()); diff != "" {
		t.Fatalf("after first render (-want +got):\n%s", diff)
	}

	s.ReconcileFromReads(host, reactive.ReadSet{a.ID(): a})
	if diff := cmp.Diff([]Entry{{ID: a.ID(), Subscribed: true}}, s.Table(host).Entries()); diff != "" {
		t.Errorf("after second render (-want +got):\n%s", diff)
	}

	// The attribute mirrors the table.
	if got, _ := host.Attr(Attr); got != "0#!"+a.ID() {
		t.Errorf("attribute = %q", got)
	}
}

func TestRetainedEntrySurvivesUnsubscribe(t *testing.T) {
	doc, s := newHost(t)
	host := doc.Body().FirstChild()

	s.Attach(host, "child", nil, false, 1)
	s.ReconcileFromReads(host, reactive.ReadSet{"child": nil})
	if !s.Subscribed(host, "child") {
		t.Fatalf("read entry not subscribed")
	}

	s.ReconcileFromReads(host, reactive.ReadSet{})
	e, ok := s.Table(host).Get("child")
	if !ok {
		t.Fatalf("retained entry dropped")
	}
	if e.Subscribed || e.Count != 1 {
		t.Errorf("entry = %+v", e)
	}

	s.Release(host, "child")
	if _, ok := host.Attr(Attr); ok {
		t.Errorf("attribute should be removed with the last entry")
	}
}

func TestAttachCounts(t *testing.T) {
	doc, s := newHost(t)
	host := doc.Body().FirstChild()

	s.Attach(host, "x", nil, false, 1)
	s.Attach(host, "x", nil, true, 1)
	if got, _ := host.Attr(Attr); got != "2#!x" {
		t.Fatalf("attribute = %q, want 2#!x", got)
	}
	s.Release(host, "x")
	if got, _ := host.Attr(Attr); got != "!x" {
		t.Errorf("attribute = %q, want !x", got)
	}
}

func TestAttachInvalidID(t *testing.T) {
	doc, s := newHost(t)
	host := doc.Body().FirstChild()

	defer func() {
		v := recover()
		if err, ok := v.(error); !ok || !errors.HasCode(err, "R003") {
			t.Fatalf("expected R003 panic, got %v", v)
		}
	}()
	s.Attach(host, "has space", nil, true, 1)
}

func TestTablesReloadFromAttribute(t *testing.T) {
	doc, s := newHost(t)
	host := doc.Body().FirstChild()
	s.Attach(host, "x", nil, true, 2)

	s.Reset()
	fresh := NewStore(nil)
	for _, st := range []*Store{s, fresh} {
		e, ok := st.Table(host).Get("x")
		if !ok || e.Count != 2 || !e.Subscribed {
			t.Errorf("reloaded entry = %+v, %v", e, ok)
		}
	}

	subs := fresh.Subscribers(doc, "x")
	if len(subs) != 1 || subs[0] != host {
		t.Errorf("Subscribers = %v", subs)
	}
}

func TestUnchangedReadsWriteNothing(t *testing.T) {
	doc, s := newHost(t)
	host := doc.Body().FirstChild()
	reads := reactive.ReadSet{"a": nil}
	s.ReconcileFromReads(host, reads)

	doc.ResetStats()
	if changed := s.ReconcileFromReads(host, reads); changed {
		t.Errorf("ReconcileFromReads reported a change")
	}
	if w := doc.Stats().Writes(); w != 0 {
		t.Errorf("writes = %d, want 0", w)
	}
}
