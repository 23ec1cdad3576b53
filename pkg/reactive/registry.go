package reactive

import "sync"

// Registry maps records to their wrappers and identifiers to objects.
//
// The identity side table never owns records on behalf of callers; it is
// emptied explicitly with Release or Reset when the document that owns
// the objects is torn down.
type Registry struct {
	mu         sync.RWMutex
	byIdentity map[uintptr]*Object
	byID       map[string]*Object
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byIdentity: make(map[uintptr]*Object),
		byID:       make(map[string]*Object),
	}
}

// Wrap returns the canonical *Object for a record, v itself for an
// *Object, and any other value unchanged.
func (r *Registry) Wrap(v any) any {
	switch x := v.(type) {
	case Record:
		if x == nil {
			return v
		}
		return r.WrapRecord(x)
	case *Object:
		return x
	default:
		return v
	}
}

// WrapRecord returns the canonical *Object for rec, creating one with a
// fresh identifier if needed.
func (r *Registry) WrapRecord(rec Record) *Object {
	return r.wrap(rec, "", "")
}

// WrapNamespaced wraps rec, giving a new object an identifier under
// namespace.
func (r *Registry) WrapNamespaced(rec Record, namespace string) *Object {
	return r.wrap(rec, "", namespace)
}

// WrapWithID wraps rec under an explicit identifier. An existing wrapper
// for rec is re-keyed; an object already registered under id is replaced.
func (r *Registry) WrapWithID(rec Record, id string) *Object {
	o := r.wrap(rec, id, "")
	if o.id != id {
		r.rekey(o, id)
	}
	return o
}

func (r *Registry) wrap(rec Record, id, namespace string) *Object {
	key := recordIdentity(rec)

	r.mu.Lock()
	defer r.mu.Unlock()

	if o, ok := r.byIdentity[key]; ok {
		return o
	}
	if id == "" {
		id = r.freshIDLocked(namespace)
	}
	o := &Object{id: id, record: rec, registry: r}
	if prev, ok := r.byID[id]; ok {
		delete(r.byIdentity, recordIdentity(prev.record))
	}
	r.byIdentity[key] = o
	r.byID[id] = o
	return o
}

// freshIDLocked returns an identifier not yet used in this registry.
// Identifiers restored from a snapshot may overlap the process counter.
func (r *Registry) freshIDLocked(namespace string) string {
	for {
		id := NamespacedID(namespace, nextID())
		if _, taken := r.byID[id]; !taken {
			return id
		}
	}
}

func (r *Registry) rekey(o *Object, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o.id == id {
		return
	}
	if cur, ok := r.byID[o.id]; ok && cur == o {
		delete(r.byID, o.id)
	}
	if prev, ok := r.byID[id]; ok && prev != o {
		delete(r.byIdentity, recordIdentity(prev.record))
	}
	o.id = id
	r.byID[id] = o
}

// Lookup returns the object registered under id, or nil.
func (r *Registry) Lookup(id string) *Object {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Find returns the wrapper of rec without creating one.
func (r *Registry) Find(rec Record) *Object {
	if rec == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byIdentity[recordIdentity(rec)]
}

// Len returns the number of registered objects.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Forget unregisters one object.
func (r *Registry) Forget(o *Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byID[o.id]; ok && cur == o {
		delete(r.byID, o.id)
	}
	if cur, ok := r.byIdentity[recordIdentity(o.record)]; ok && cur == o {
		delete(r.byIdentity, recordIdentity(o.record))
	}
}

// Release unregisters every object owned by owner and returns how many
// were dropped.
func (r *Registry) Release(owner Owner) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, o := range r.byID {
		if o.owner != owner {
			continue
		}
		delete(r.byID, id)
		delete(r.byIdentity, recordIdentity(o.record))
		n++
	}
	return n
}

// Reset empties the registry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byIdentity = make(map[uintptr]*Object)
	r.byID = make(map[string]*Object)
}

// wrapValue wraps a value read from a record. Records become objects that
// inherit owner when they have none; slices are copied with their record
// elements wrapped.
func (r *Registry) wrapValue(v any, owner Owner) any {
	switch x := v.(type) {
	case Record:
		if x == nil {
			return v
		}
		o := r.WrapRecord(x)
		if o.owner == nil {
			o.owner = owner
		}
		return o
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = r.wrapValue(e, owner)
		}
		return out
	default:
		return v
	}
}

// adopt registers records being assigned into reactive storage and
// returns the unwrapped value to store.
func (r *Registry) adopt(v any, owner Owner) any {
	switch x := v.(type) {
	case Record:
		if x != nil {
			if o := r.WrapRecord(x); o.owner == nil {
				o.owner = owner
			}
		}
		return x
	case []any:
		for _, e := range x {
			r.adopt(e, owner)
		}
		return x
	default:
		return v
	}
}
