package htmldoc

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// NavigationExclusionMode controls how navigation, headers, and footers of
// a page are filtered while parsing.
type NavigationExclusionMode int

const (
	// NavigationExclusionNone includes all content without filtering.
	NavigationExclusionNone NavigationExclusionMode = iota

	// NavigationExclusionExplicit skips explicit semantic HTML5 elements:
	// <nav>, <aside>, and ARIA roles (role="navigation", role="complementary").
	// <header> and <footer> are skipped unless they belong to an <article>.
	NavigationExclusionExplicit

	// NavigationExclusionStandard combines explicit element detection with
	// common class/id pattern matching (nav, navbar, menu, footer, sidebar, ...).
	NavigationExclusionStandard
)

// excludedPattern matches class and id values of navigation and boilerplate
var excludedPattern = regexp.MustCompile(
	`(?i)(^|[^a-z])(nav|navbar|navigation|menu|topnav|sidenav|breadcrumb|breadcrumbs|` +
		`site-header|page-header|masthead|banner|` +
		`footer|site-footer|page-footer|colophon|` +
		`sidebar|widget-area|widget|aside)([^a-z]|$)`)

var (
	explicitNavigation = cascadia.MustCompile(`nav, aside, [role="navigation"], [role="complementary"]`)
	pageFrame          = cascadia.MustCompile(`header, footer, [role="banner"], [role="contentinfo"]`)
)

// excludes reports whether an element and its content are dropped. inArticle
// tells whether the element is nested in an <article>.
func (mode NavigationExclusionMode) excludes(tok html.Token, inArticle bool) bool {
	if mode == NavigationExclusionNone {
		return false
	}
	el := element(tok)
	if explicitNavigation.Match(el) {
		return true
	}
	if pageFrame.Match(el) && !inArticle {
		return true
	}
	if mode >= NavigationExclusionStandard {
		for _, key := range []string{"class", "id"} {
			if v, ok := attr(tok, key); ok && v != "" && excludedPattern.MatchString(normalizeClassName(v)) {
				return true
			}
		}
	}
	return false
}

// normalizeClassName normalizes a class name for pattern matching.
// It converts camelCase to dashed lower case.
func normalizeClassName(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			result.WriteRune('-')
		}
		result.WriteRune(unicode.ToLower(r))
	}

	return result.String()
}
