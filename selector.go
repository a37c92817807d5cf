package ingestkit

import (
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// Selector decides whether a document name is routed to a compressor.
// Names are matched on their base name, case-insensitively.
type Selector interface {
	Match(name string) bool
}

// ============================================================================
// All
// ============================================================================

type allSelector struct{}

func (allSelector) Match(string) bool { return true }

// All returns a selector that matches every name.
func All() Selector {
	return allSelector{}
}

// ============================================================================
// Glob - Pattern matching
// ============================================================================

type globSelector struct {
	pattern string
	g       glob.Glob
}

// Glob creates a selector from a glob pattern.
// Supports: *, ?, [abc], [a-z], {alt1,alt2}
//
// Examples:
//
//	Glob("*.pdf")               // PDF documents
//	Glob("*.{jpg,jpeg,png}")    // common images
//	Glob("scan_????.tif")       // scan_0001.tif, etc.
func Glob(pattern string) (Selector, error) {
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, err
	}
	return &globSelector{pattern: pattern, g: g}, nil
}

// MustGlob is like Glob but panics on an invalid pattern.
func MustGlob(pattern string) Selector {
	s, err := Glob(pattern)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *globSelector) Match(name string) bool {
	return s.g.Match(baseName(name))
}

func (s *globSelector) String() string {
	return s.pattern
}

// Globs returns a selector matching any of patterns.
func Globs(patterns ...string) (Selector, error) {
	selectors := make([]Selector, 0, len(patterns))
	for _, p := range patterns {
		s, err := Glob(p)
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, s)
	}
	return Or(selectors...), nil
}

// ============================================================================
// Composable Selectors (And, Or, Not)
// ============================================================================

type andSelector struct {
	selectors []Selector
}

// And matches only if ALL selectors match.
func And(selectors ...Selector) Selector {
	return &andSelector{selectors: selectors}
}

func (s *andSelector) Match(name string) bool {
	for _, sel := range s.selectors {
		if !sel.Match(name) {
			return false
		}
	}
	return true
}

type orSelector struct {
	selectors []Selector
}

// Or matches if ANY selector matches.
func Or(selectors ...Selector) Selector {
	return &orSelector{selectors: selectors}
}

func (s *orSelector) Match(name string) bool {
	for _, sel := range s.selectors {
		if sel.Match(name) {
			return true
		}
	}
	return false
}

type notSelector struct {
	selector Selector
}

// Not inverts a selector's match result.
func Not(selector Selector) Selector {
	return &notSelector{selector: selector}
}

func (s *notSelector) Match(name string) bool {
	return !s.selector.Match(name)
}

// ============================================================================
// FuncSelector - Custom logic
// ============================================================================

type funcSelector func(string) bool

func (f funcSelector) Match(name string) bool { return f(name) }

// FuncSelector creates a selector from a custom function.
//
// Example:
//
//	FuncSelector(func(name string) bool {
//	    return !strings.HasPrefix(name, "raw_")
//	})
func FuncSelector(fn func(name string) bool) Selector {
	return funcSelector(fn)
}

// baseName lowercases the last element of a slash or backslash separated
// name.
func baseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.ToLower(path.Base(name))
}
