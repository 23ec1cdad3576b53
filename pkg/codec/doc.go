// Package codec turns live reactive state into text and back.
//
// Two encodings live here. The state block is one
// <script type="rs/json" rs:state> element holding every object a
// document's hosts reference, keyed by identifier, with nested objects
// replaced by "\u0010<id>" markers. The attribute grammar encodes single
// property values on elements:
//
//	42, true, null        literals
//	hello                 bare string
//	"42", "*x", "\"q\""   quoted string (JSON) when a bare form would be ambiguous
//	{"a":1}, [1,"*x"]     JSON, nested objects written as "*<id>"
//	*x                    reference to object x
//
// References are resolved against the live object table, never against
// the state block. A JSON string starting with "*" is indistinguishable
// from a reference.
package codec
