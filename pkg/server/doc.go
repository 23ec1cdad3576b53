// Package server serves resumable documents over HTTP.
//
// A page request renders a fresh document, dehydrates it, stores the
// result as a snapshot and returns the markup. An event request names a
// snapshot, an event and the index of the target among the elements
// handling that event; the server resumes the snapshot, dispatches the
// event, lets the scheduled renders settle and stores the dehydrated
// result under a new identifier. The live endpoint carries the same
// exchange over a WebSocket.
//
// Routes:
//
//	GET  <page pattern>          render a registered page
//	POST /_rs/dispatch/{id}      dispatch one event, returns the new document
//	GET  /_rs/live/{id}          WebSocket, one JSON message per event
//	GET  /metrics                Prometheus metrics, when enabled
//
// Example:
//
//	srv := server.New(&server.Config{
//	    Store:    snapshot.NewMemoryStore(),
//	    Importer: symbols,
//	})
//	srv.Handle("/", func(ctx *runtime.Context, r *http.Request) *vdom.VNode {
//	    return vdom.Component("todo-app", "app#todos")
//	})
//	log.Fatal(srv.Run(context.Background()))
package server
