package reactive

import (
	"reflect"
	"sort"
	"strings"

	"github.com/vango-dev/resume/internal/errors"
)

// Record is the plain data a reactive object wraps.
type Record = map[string]any

// Reserved keys bypass field semantics.
const (
	// KeyOwner attaches an owner (usually a document context) to an object.
	KeyOwner = "$owner"

	// KeyID overrides the object's identifier.
	KeyID = "$id"

	reservedPrefix = "$"
)

// Owner is notified when an object it owns changes.
type Owner interface {
	NotifySubscribers(id string)
}

// Observable is a record whose reads can be tracked and whose writes
// notify subscribers.
type Observable interface {
	Get(key string) any
	Set(key string, value any)
	Keys() []string
}

// Object is the canonical reactive wrapper of one record.
type Object struct {
	id       string
	record   Record
	registry *Registry
	owner    Owner
}

var _ Observable = (*Object)(nil)

// ID returns the object's identifier.
func (o *Object) ID() string {
	return o.id
}

// Raw returns the wrapped record. Mutating it directly bypasses
// notifications.
func (o *Object) Raw() Record {
	return o.record
}

// Owner returns the attached owner, or nil.
func (o *Object) Owner() Owner {
	return o.owner
}

// Registry returns the registry the object belongs to.
func (o *Object) Registry() *Registry {
	return o.registry
}

// Get reads a field. The object is tracked by the current tracker, and
// nested records are returned wrapped.
func (o *Object) Get(key string) any {
	if t := CurrentTracker(); t != nil {
		t.Track(o)
	}
	return o.registry.wrapValue(o.record[key], o.owner)
}

// Peek reads a field without tracking and without wrapping.
func (o *Object) Peek(key string) any {
	return o.record[key]
}

// Has reports whether the field exists. Tracked like Get.
func (o *Object) Has(key string) bool {
	if t := CurrentTracker(); t != nil {
		t.Track(o)
	}
	_, ok := o.record[key]
	return ok
}

// Keys returns the field names in sorted order. Tracked like Get.
func (o *Object) Keys() []string {
	if t := CurrentTracker(); t != nil {
		t.Track(o)
	}
	keys := make([]string, 0, len(o.record))
	for k := range o.record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set writes a field. Writing an unchanged value has no effect; a change
// notifies the owner. Assigned records are wrapped (and adopted by this
// object's owner) so later reads of them are observable.
func (o *Object) Set(key string, value any) {
	if strings.HasPrefix(key, reservedPrefix) {
		o.setReserved(key, value)
		return
	}

	next := o.registry.adopt(Unwrap(value), o.owner)
	if prev, ok := o.record[key]; ok && sameValue(prev, next) {
		return
	}
	o.record[key] = next
	o.notify()
}

// Delete removes a field, notifying the owner if it existed.
func (o *Object) Delete(key string) {
	errors.Assert(!strings.HasPrefix(key, reservedPrefix), "R002", "delete %q", key)
	if _, ok := o.record[key]; !ok {
		return
	}
	delete(o.record, key)
	o.notify()
}

func (o *Object) notify() {
	if o.owner != nil {
		o.owner.NotifySubscribers(o.id)
	}
}

func (o *Object) setReserved(key string, value any) {
	switch key {
	case KeyOwner:
		owner, _ := value.(Owner)
		o.owner = owner
	case KeyID:
		id, ok := value.(string)
		errors.Assert(ok && id != "", "R002", "%s must be a non-empty string", KeyID)
		o.registry.rekey(o, id)
	default:
		errors.Fatal("R002", "key %q", key)
	}
}

// Unwrap returns the record behind an *Object. Slices are copied with
// their elements unwrapped.
// Any other value is returned unchanged.
func Unwrap(v any) any {
	switch x := v.(type) {
	case *Object:
		if x == nil {
			return nil
		}
		return x.record
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Unwrap(e)
		}
		return out
	default:
		return v
	}
}

// sameValue compares unwrapped values: records by identity, everything
// else structurally.
func sameValue(a, b any) bool {
	am, aok := a.(Record)
	bm, bok := b.(Record)
	if aok || bok {
		return aok && bok && recordIdentity(am) == recordIdentity(bm)
	}
	return reflect.DeepEqual(a, b)
}

// recordIdentity is the stable identity token of a record.
func recordIdentity(r Record) uintptr {
	if r == nil {
		return 0
	}
	return reflect.ValueOf(r).Pointer()
}
