// Package task provides the single-threaded cooperative execution model
// used by the renderer.
//
// A Loop is a FIFO of units of work. Whichever goroutine calls Run,
// RunUntilIdle or Await becomes the loop thread; every Future callback
// and every posted task runs there, one at a time, so render state needs
// no locking. Work started on other goroutines (Go) hands its result back
// by posting onto the loop.
//
// Future is the explicit continuation primitive: suspension points such
// as component renders, deferred values and batch dispatch each return a
// Future, and Then/All replace implicit promise flattening. A Queue is a
// join list of futures collected during one reconcile pass.
package task
