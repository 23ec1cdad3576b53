// Package errors provides structured, coded errors for the resume runtime.
//
// Errors are grouped into categories that decide how they propagate:
//   - misuse: programmer-misuse assertions (closed cursor, reserved key
//     write, invalid subscription key). Fatal.
//   - context: an operation needed a context that was not available
//     (reference decode with no table, accessor outside an invocation).
//     Fatal.
//   - render: a component's render hook failed. Caught per host node,
//     logged, and never aborts the rest of a render batch.
//   - codec: malformed embedded state or attribute values.
//   - config: invalid project configuration.
//
// # Usage
//
//	err := errors.New("R030").
//	    WithDetail("state block is not a JSON object").
//	    Wrap(jsonErr)
//
//	errors.Fatal("R001") // panics with a *Error
//
// Fatal errors are raised with panic so they unwind through render code
// that has no error return; task boundaries recover them and reject the
// pending future instead of crashing the process.
package errors
