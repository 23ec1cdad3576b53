// Package demo is a small resumable application used by the resume CLI
// and by integration tests: a todo list whose items toggle, and a
// counter keeping its state on the host element.
//
// Register installs the render hooks and handlers into a symbol
// registry; Pages lists the page constructors by route.
package demo
