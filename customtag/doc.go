// Package customtag reads and writes template tags of the form
// {% name arg key=value %} and nests the tag nodes of a sibling list.
//
// Arguments are literals: numbers, booleans, quoted strings with backslash
// escapes, or bare words. Positional arguments are stored under the data
// keys "0", "1", ...; keyword arguments under their name.
//
// A tag named end<name> closes the innermost open tag <name>. Tags
// registered as unending have no closing tag: their scope runs until the
// next tag of the same name, a closing tag of an enclosing scope, or the end
// of the list. A tag that is neither closed nor unending stays void.
package customtag

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'markit.customtag'
func tracer() tracing.Trace {
	return tracing.Select("markit.customtag")
}
