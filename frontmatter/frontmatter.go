// Package frontmatter splits and renders the YAML metadata header of a
// markdown document:
//
//	---
//	title: Hello
//	---
//
//	Body text
//
// A header that is not a YAML mapping is not a header: [Split] then returns
// the text unchanged.
package frontmatter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tsawler/markit/model"
	"gopkg.in/yaml.v3"
)

// ErrNotMapping is returned by Parse for a header that decodes to something
// other than a mapping
var ErrNotMapping = errors.New("frontmatter: header is not a mapping")

const bom = "\ufeff"

// Split separates the metadata header from the body. Text without a valid
// header is returned as the body with nil data.
func Split(text string) (model.Data, string) {
	data, body, err := Parse(text)
	if err != nil {
		return nil, text
	}
	return data, body
}

// Parse is Split reporting invalid headers. Text without a header yields nil
// data and no error.
func Parse(text string) (model.Data, string, error) {
	header, body, ok := cut(text)
	if !ok {
		return nil, text, nil
	}
	if strings.TrimSpace(header) == "" {
		return nil, body, nil
	}

	var values any
	if err := yaml.Unmarshal([]byte(header), &values); err != nil {
		return nil, text, fmt.Errorf("decoding front matter: %w", err)
	}
	m, ok := values.(map[string]any)
	if !ok {
		return nil, text, ErrNotMapping
	}
	return model.Data(m), body, nil
}

// cut finds the header delimited by "---" lines. The closing line may also
// be "...".
func cut(text string) (header, body string, ok bool) {
	rest := strings.TrimPrefix(text, bom)
	first, rest, found := strings.Cut(rest, "\n")
	if !found || strings.TrimRight(first, " \t\r") != "---" {
		return "", text, false
	}
	var sb strings.Builder
	for rest != "" {
		var line string
		line, rest, _ = strings.Cut(rest, "\n")
		if l := strings.TrimRight(line, " \t\r"); l == "---" || l == "..." {
			return sb.String(), rest, true
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return "", text, false
}

// Render writes data as a header followed by a blank line. Empty data
// renders as "".
func Render(data model.Data) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	out, err := yaml.Marshal(map[string]any(data))
	if err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}
	return "---\n" + string(out) + "---\n\n", nil
}
