// Package runtime binds the reactive, codec, reconcile and sched packages
// to one live document.
//
// A Context owns everything a document needs while it is being rendered
// or resumed: the object registry, the subscription store, the render
// scheduler and the symbol importer used to load render hooks and event
// handlers. All of its methods must be called on the context's task loop.
//
// Component hosts name their render hook in the rs:component attribute.
// Rendering a host imports the hook, runs it with the host's Invocation
// installed as the read tracker, reconciles the output into the host and
// records every object read as the host's subscriptions. Writing to such
// an object later flags the host and schedules a batch.
//
// A document produced by Dehydrate carries its state in a state block;
// the first context that touches it revives the objects lazily, so
// resuming never replays component initialization.
package runtime
