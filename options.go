package markit

import (
	"github.com/tsawler/markit/htmldoc"
	"github.com/tsawler/markit/markdown"
)

// ConvertOptions holds configuration for a conversion.
type ConvertOptions struct {
	// Markdown syntax switches
	template bool
	math     bool

	// Template tags that never take a closing tag
	unendingTags []string

	// HTML input filtering
	navigation htmldoc.NavigationExclusionMode
}

// defaultOptions returns the default conversion options.
func defaultOptions() ConvertOptions {
	return ConvertOptions{
		template:     true,
		math:         true,
		unendingTags: nil,
		navigation:   htmldoc.NavigationExclusionNone,
	}
}

// clone creates a deep copy of ConvertOptions.
func (o ConvertOptions) clone() ConvertOptions {
	newOpts := ConvertOptions{
		template:   o.template,
		math:       o.math,
		navigation: o.navigation,
	}

	// Deep copy tag slice
	if o.unendingTags != nil {
		newOpts.unendingTags = make([]string, len(o.unendingTags))
		copy(newOpts.unendingTags, o.unendingTags)
	}

	return newOpts
}

// markdown returns the grammar options of the markdown parser and printer.
func (o ConvertOptions) markdown() markdown.Options {
	return markdown.Options{
		Template:     o.template,
		Math:         o.math,
		UnendingTags: o.unendingTags,
	}
}

// html returns the options of the HTML parser.
func (o ConvertOptions) html() htmldoc.Options {
	return htmldoc.Options{Navigation: o.navigation}
}
