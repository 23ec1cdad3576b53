// Package reactive provides the observable record wrapper at the heart of
// the runtime.
//
// A plain record (map[string]any) is wrapped into an *Object. Reading a
// field while a Tracker is installed (a component render) records the
// object in that tracker's read set; writing a field that changes its
// value asks the object's Owner (the document context) to re-render every
// host subscribed to the object's identifier.
//
//	reg := reactive.NewRegistry()
//	item := reg.WrapRecord(reactive.Record{"title": "milk", "completed": false})
//	item.Get("completed")      // tracked when a render is active
//	item.Set("completed", true) // notifies subscribers
//
// # Identity
//
// Exactly one *Object exists per record per Registry: wrapping an
// already-wrapped record, or the wrapper itself, returns the same object.
// There is no process-wide registry: each runtime document owns one and
// releases it on teardown.
//
// Records are JSON-shaped. Nested records are wrapped when read or
// assigned, so nested access stays observable. Slices are values: writes
// must assign a new slice.
//
// # Threading
//
// Objects are single-threaded; they are read and written on the render
// loop. The registry and the tracking context are safe for concurrent use.
package reactive
