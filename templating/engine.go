// Package templating renders the destination path and the document body of a
// transcript from {{tag}} and {{tag:params}} templates.
package templating

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// SuggestionThreshold is the minimum normalized similarity a known tag needs
// to be offered as a "did you mean" suggestion.
const SuggestionThreshold = 0.4

var tagPattern = regexp.MustCompile(`\{\{(.*?)(:\s*?.+?)?\}\}`)

// Func is a tag that takes the comma-separated params after the colon.
type Func func(params ...string) string

// Warning reports a tag that could not be resolved. The tag is left in the
// output verbatim.
type Warning struct {
	Tag string
	// Suggestion is the closest known tag, empty when there are no tags.
	Suggestion string
	// Similar is true when Suggestion clears SuggestionThreshold.
	Similar bool
}

// Message formats the warning for a user-facing notice.
func (w Warning) Message() string {
	if w.Suggestion == "" {
		return fmt.Sprintf("Tag %s is invalid.", w.Tag)
	}
	if w.Similar {
		return fmt.Sprintf("Tag %s is invalid. Did you mean %s?", w.Tag, w.Suggestion)
	}
	return fmt.Sprintf("Tag %s is invalid. The closest known tag is %s.", w.Tag, w.Suggestion)
}

// Engine holds the tags available to one render.
type Engine struct {
	tags map[string]Func
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{tags: make(map[string]Func)}
}

// Value registers a constant tag.
func (e *Engine) Value(name, value string) *Engine {
	return e.Func(name, func(...string) string { return value })
}

// Func registers a tag computed from its params.
func (e *Engine) Func(name string, fn Func) *Engine {
	e.tags[strings.ToLower(name)] = fn
	return e
}

// Tags returns the registered tag names in sorted order.
func (e *Engine) Tags() []string {
	names := make([]string, 0, len(e.tags))
	for name := range e.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render replaces every known tag in tmpl and returns one warning per
// unknown tag occurrence.
func (e *Engine) Render(tmpl string) (string, []Warning) {
	var warnings []Warning
	out := tagPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		sub := tagPattern.FindStringSubmatch(match)
		id, params := sub[1], sub[2]

		fn, ok := e.tags[strings.ToLower(id)]
		if !ok {
			warnings = append(warnings, e.suggest(id))
			return match
		}
		if params == "" {
			return fn()
		}
		return fn(strings.Split(params[1:], ",")...)
	})
	return out, warnings
}

func (e *Engine) suggest(id string) Warning {
	w := Warning{Tag: id}
	best := -1.0
	needle := strings.ToLower(id)
	for _, name := range e.Tags() {
		if s := similarity(needle, name); s > best {
			best, w.Suggestion = s, name
		}
	}
	w.Similar = best >= SuggestionThreshold
	return w
}

// similarity is 1 minus the Levenshtein distance normalized by the longer
// string's rune count.
func similarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func param(params []string) string {
	if len(params) == 0 {
		return ""
	}
	return params[0]
}
