// Package placeholder substitutes `{{expression}}` occurrences in text with
// the stringified result of evaluating each expression.
package placeholder

import (
	"regexp"
	"strings"

	"github.com/vk/ngstatic/internal/expr"
)

// pattern matches non-overlapping placeholders whose inner text holds no
// closing brace.
var pattern = regexp.MustCompile(`{{([^}]+)}}`)

// Issue describes a placeholder whose expression did not produce a value.
// Exactly one of Undefined or Err is set.
type Issue struct {
	Expression string
	Undefined  bool
	Unresolved []string
	Err        error
}

// IssueFunc receives the problems found while substituting. It may be nil.
type IssueFunc func(Issue)

type segment struct {
	text   string
	isExpr bool
}

// Template is text split once into literal runs and placeholder
// expressions, so it can be executed against many scopes.
type Template struct {
	segments []segment
	exprs    int
}

// Parse splits text into literal and placeholder segments.
func Parse(text string) *Template {
	t := &Template{}
	last := 0
	for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			t.segments = append(t.segments, segment{text: text[last:loc[0]]})
		}
		t.segments = append(t.segments, segment{
			text:   strings.TrimSpace(text[loc[2]:loc[3]]),
			isExpr: true,
		})
		t.exprs++
		last = loc[1]
	}
	if last < len(text) {
		t.segments = append(t.segments, segment{text: text[last:]})
	}
	return t
}

// HasPlaceholders reports whether the parsed text contained any placeholder.
func (t *Template) HasPlaceholders() bool {
	return t.exprs > 0
}

// Execute evaluates every placeholder against scope, in order of
// appearance, and returns the substituted text. Undefined results and
// expression errors are replaced by the empty string and passed to onIssue.
func (t *Template) Execute(ev *expr.Evaluator, scope expr.Scope, onIssue IssueFunc) string {
	var sb strings.Builder
	for _, seg := range t.segments {
		if !seg.isExpr {
			sb.WriteString(seg.text)
			continue
		}

		res, err := ev.Evaluate(seg.text, scope)
		switch {
		case err != nil:
			if onIssue != nil {
				onIssue(Issue{Expression: seg.text, Err: err})
			}
		case res.Undefined:
			if onIssue != nil {
				onIssue(Issue{Expression: seg.text, Undefined: true, Unresolved: res.Unresolved})
			}
		default:
			sb.WriteString(expr.Stringify(res.Value))
		}
	}
	return sb.String()
}

// Substitute replaces every placeholder in text. Text without placeholders
// is returned unchanged.
func Substitute(text string, ev *expr.Evaluator, scope expr.Scope, onIssue IssueFunc) string {
	tmpl := Parse(text)
	if !tmpl.HasPlaceholders() {
		return text
	}
	return tmpl.Execute(ev, scope, onIssue)
}
