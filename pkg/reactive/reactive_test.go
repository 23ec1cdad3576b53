package reactive

import (
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/resume/internal/errors"
)

type recordingOwner struct {
	notified []string
}

func (o *recordingOwner) NotifySubscribers(id string) {
	o.notified = append(o.notified, id)
}

func TestWrapIdentity(t *testing.T) {
	r := NewRegistry()
	rec := Record{"title": "a"}

	a := r.Wrap(rec)
	b := r.Wrap(rec)
	if a != b {
		t.Fatalf("Wrap returned distinct wrappers for the same record")
	}
	if r.Wrap(a) != a {
		t.Errorf("Wrap(wrapper) should return the wrapper itself")
	}
	if got := Unwrap(a).(Record); recordIdentity(got) != recordIdentity(rec) {
		t.Errorf("Unwrap(Wrap(rec)) is not rec")
	}
}

func TestWrapPrimitivesUnchanged(t *testing.T) {
	r := NewRegistry()
	for _, v := range []any{nil, 1.5, "s", true} {
		if got := r.Wrap(v); got != v {
			t.Errorf("Wrap(%v) = %v, want unchanged", v, got)
		}
	}
}

func TestNestedReadsWrap(t *testing.T) {
	r := NewRegistry()
	child := Record{"done": false}
	parent := r.WrapRecord(Record{"child": child, "list": []any{child, 2.0}})

	got, ok := parent.Get("child").(*Object)
	if !ok {
		t.Fatalf("nested record was not wrapped: %T", parent.Get("child"))
	}
	if got != r.Find(child) {
		t.Errorf("nested wrapper is not canonical")
	}
	list := parent.Get("list").([]any)
	if list[0] != got {
		t.Errorf("slice element not wrapped to the canonical object")
	}
	if list[1] != 2.0 {
		t.Errorf("list[1] = %v", list[1])
	}
}

func TestWriteNotifiesOwner(t *testing.T) {
	r := NewRegistry()
	owner := &recordingOwner{}
	o := r.WrapRecord(Record{"n": 1.0})
	o.Set(KeyOwner, owner)

	o.Set("n", 1.0)
	if len(owner.notified) != 0 {
		t.Fatalf("unchanged write notified: %v", owner.notified)
	}

	o.Set("n", 2.0)
	if diff := cmp.Diff([]string{o.ID()}, owner.notified); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
	if o.Peek("n") != 2.0 {
		t.Errorf("n = %v", o.Peek("n"))
	}
}

func TestAssignedRecordAdoptsOwner(t *testing.T) {
	r := NewRegistry()
	owner := &recordingOwner{}
	o := r.WrapRecord(Record{})
	o.Set(KeyOwner, owner)

	child := Record{"x": 1.0}
	o.Set("child", child)

	w := r.Find(child)
	if w == nil {
		t.Fatalf("assigned record was not registered")
	}
	if w.Owner() != owner {
		t.Errorf("assigned record did not inherit the owner")
	}

	owner.notified = nil
	w.Set("x", 2.0)
	if diff := cmp.Diff([]string{w.ID()}, owner.notified); diff != "" {
		t.Errorf("child notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestSetWrapperStoresRecord(t *testing.T) {
	r := NewRegistry()
	o := r.WrapRecord(Record{})
	child := r.WrapRecord(Record{"a": 1.0})

	o.Set("child", child)
	if _, ok := o.Peek("child").(Record); !ok {
		t.Fatalf("stored %T, want Record", o.Peek("child"))
	}

	// Same record again is unchanged.
	owner := &recordingOwner{}
	o.Set(KeyOwner, owner)
	o.Set("child", child)
	if len(owner.notified) != 0 {
		t.Errorf("re-assigning the same record notified")
	}
}

func TestReservedKeys(t *testing.T) {
	r := NewRegistry()
	o := r.WrapRecord(Record{})

	o.Set(KeyID, "custom")
	if o.ID() != "custom" || r.Lookup("custom") != o {
		t.Fatalf("re-keying failed: id=%q", o.ID())
	}

	defer func() {
		v := recover()
		if !errors.IsFatal(v) {
			t.Fatalf("expected fatal error, got %v", v)
		}
		if !errors.HasCode(v.(error), "R002") {
			t.Errorf("expected R002, got %v", v)
		}
	}()
	o.Set("$other", 1)
}

func TestTracking(t *testing.T) {
	r := NewRegistry()
	a := r.WrapRecord(Record{"v": 1.0})
	b := r.WrapRecord(Record{"v": 2.0})

	reads := ReadSet{}
	WithTracker(reads, func() {
		a.Get("v")
		Untracked(func() {
			b.Get("v")
		})
	})

	if diff := cmp.Diff([]string{a.ID()}, reads.IDs()); diff != "" {
		t.Errorf("tracked reads mismatch (-want +got):\n%s", diff)
	}
	if CurrentTracker() != nil {
		t.Errorf("tracker leaked after WithTracker")
	}
}

func TestRegistryRelease(t *testing.T) {
	r := NewRegistry()
	owner := &recordingOwner{}
	a := r.WrapRecord(Record{})
	a.Set(KeyOwner, owner)
	r.WrapRecord(Record{})

	if n := r.Release(owner); n != 1 {
		t.Errorf("Release dropped %d objects, want 1", n)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
	if r.Lookup(a.ID()) != nil {
		t.Errorf("released object still registered")
	}
}

func TestFreshIDsSkipTaken(t *testing.T) {
	r := NewRegistry()
	next := NamespacedID("", nextID())
	// The following id from the counter is taken by a restored object.
	taken := strconv.FormatUint(atomic.LoadUint64(&globalIDCounter)+1, 36)
	r.WrapWithID(Record{}, taken)

	o := r.WrapRecord(Record{})
	if o.ID() == taken {
		t.Errorf("fresh id collided with a restored one")
	}
	if o.ID() == next {
		t.Errorf("counter reused an id")
	}
}

func TestRegistriesAreIsolated(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	rec := Record{"n": 1.0}

	oa := a.WrapRecord(rec)
	ob := b.WrapRecord(rec)
	if oa == ob {
		t.Fatalf("two registries returned the same wrapper")
	}
	if got := b.Lookup(oa.ID()); got != nil {
		t.Errorf("registry b resolved a's identifier %q", oa.ID())
	}

	a.Reset()
	if a.Len() != 0 {
		t.Errorf("a.Len() = %d after Reset", a.Len())
	}
	if b.Find(rec) != ob {
		t.Errorf("resetting a dropped b's wrapper")
	}
}
