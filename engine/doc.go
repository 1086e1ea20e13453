// Package engine implements the rule language and the cursor/stack machine
// shared by every surface format.
//
// A [Rule] is a declarative pipeline of steps (matchers, filters,
// alternatives, leaf transforms) interpreted by [Rule.Apply]. A [Grammar]
// groups named rules into ordered lists, one list per mode ("document",
// "block", "inline").
//
// A [State] is an immutable value holding the text buffer, the working node
// list, a stack of saved frames, the active marks and a prop bag. Parsing is
// driven by [State.Lex], which repeatedly applies the first matching
// deserialize rule and coalesces unmatched input into literal text one rune
// at a time. Printing is driven by [State.Serialize], which consumes the node
// list with serialize rules and appends to the text buffer.
//
// A rule that returns a state identical to its input, or a node no serialize
// rule accepts, is a defect of the grammar. Both abort the conversion with an
// [*InvariantError] returned from the error-returning entry points
// ([State.DeserializeDocument], [State.SerializeDocument], ...).
package engine

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'markit.engine'
func tracer() tracing.Trace {
	return tracing.Select("markit.engine")
}
