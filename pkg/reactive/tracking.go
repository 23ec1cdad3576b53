package reactive

import (
	"runtime"
	"sync"
)

// Tracker receives the objects read while it is installed.
type Tracker interface {
	Track(o *Object)
}

// ReadSet is a Tracker collecting objects by identifier.
type ReadSet map[string]*Object

// Track implements Tracker.
func (s ReadSet) Track(o *Object) {
	s[o.ID()] = o
}

// IDs returns the identifiers in the set.
func (s ReadSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// trackingContext holds the reactive state for a goroutine.
type trackingContext struct {
	// current is what's currently tracking reads. nil means no tracking.
	current Tracker
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the runtime stack header "goroutine <id> ".
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

func getTrackingContext() *trackingContext {
	gid := getGoroutineID()
	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}
	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// CurrentTracker returns the tracker installed on this goroutine, or nil.
func CurrentTracker() Tracker {
	return getTrackingContext().current
}

func setCurrentTracker(t Tracker) Tracker {
	ctx := getTrackingContext()
	old := ctx.current
	ctx.current = t
	return old
}

// WithTracker runs fn with t collecting reads. The previous tracker is
// restored afterwards, even if fn panics.
func WithTracker(t Tracker, fn func()) {
	old := setCurrentTracker(t)
	defer func() {
		if setCurrentTracker(old); old == nil {
			cleanupGoroutineContext()
		}
	}()
	fn()
}

// Untracked runs fn without recording reads.
func Untracked(fn func()) {
	old := setCurrentTracker(nil)
	defer setCurrentTracker(old)
	fn()
}

// cleanupGoroutineContext removes the tracking context for the current
// goroutine so short-lived render goroutines do not leak entries.
func cleanupGoroutineContext() {
	trackingContexts.Delete(getGoroutineID())
}
