// Package reconcile applies virtual node trees to a live document.
//
// Reconciliation is positional. A Cursor walks the live children of one
// parent while virtual children are consumed left to right; each virtual
// child reuses the live node at the cursor when kind and tag match and
// replaces it otherwise. Closing a cursor removes every live node it did
// not consume.
//
// Component hosts hold two kinds of children: the output of their render
// hook, and projected content supplied by the parent. Projected content
// lives inside <rs-slot name="..."> elements positioned by the hook's
// output, or inside a <template rs:unslotted> container while no slot of
// its name is rendered. Content is matched to projected nodes strictly in
// document order per slot name.
//
// Renders of nested component hosts are not run inline: they are added
// to a task.Queue which the caller flushes to wait for the whole tree.
package reconcile
