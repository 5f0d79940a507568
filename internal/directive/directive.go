// Package directive finds and applies the attribute directives of a parsed
// HTML document:
//
//	<p *ngif="site.showBanner">...</p>
//	<li *ngfor="let page of site.pages">{{page.title}}</li>
//
// A Scan records every directive site once, in document order, before any
// mutation. The conditional pass then keeps or removes its sites and the
// repeat pass expands its sites into one sibling clone per item. Each pass
// visits each site at most once and skips sites detached by earlier edits.
package directive

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"golang.org/x/net/html"
)

// Attribute names. The HTML tokenizer lowercases attribute names, so
// `*ngIf` and `*NGIF` arrive as ConditionalAttr too.
const (
	ConditionalAttr = "*ngif"
	RepeatAttr      = "*ngfor"
)

// Kind tags the variant of a Directive.
type Kind int

const (
	None Kind = iota
	Conditional
	Repeat
)

func (k Kind) String() string {
	switch k {
	case Conditional:
		return "conditional"
	case Repeat:
		return "repeat"
	}
	return "none"
}

// Directive is the parsed form of one directive attribute.
type Directive struct {
	Kind Kind
	// Raw is the attribute value as written.
	Raw string
	// Expr is the condition of a Conditional directive.
	Expr string
	// Binder and Path are the two halves of a Repeat directive.
	Binder string
	Path   string

	// err holds a Repeat grammar error; it surfaces when the site is processed.
	err error
}

// Attr returns the attribute name carrying d.
func (d Directive) Attr() string {
	switch d.Kind {
	case Conditional:
		return ConditionalAttr
	case Repeat:
		return RepeatAttr
	}
	return ""
}

// Site is a directive found on an element. ID is the site's position in
// document order and stays valid while the tree is rewritten.
type Site struct {
	ID        int
	Node      *html.Node
	Directive Directive
}

// Document is a parsed tree together with its directive sites.
type Document struct {
	Root  *html.Node
	Sites []Site

	// expanded holds the clones produced by the repeat pass; later
	// placeholder passes leave them alone.
	expanded map[*html.Node]bool
}

// Scan walks root in document order and records every directive site. An
// element carrying both attributes yields a conditional site followed by a
// repeat site.
func Scan(root *html.Node) *Document {
	doc := &Document{Root: root, expanded: make(map[*html.Node]bool)}
	doc.Sites = scanSites(root, None)
	return doc
}

// SitesOf returns the sites of the given kind, in document order.
func (d *Document) SitesOf(kind Kind) []Site {
	var out []Site
	for _, s := range d.Sites {
		if s.Directive.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// scanSites collects the sites below root. When only is not None, sites of
// other kinds are ignored.
func scanSites(root *html.Node, only Kind) []Site {
	var sites []Site
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if only == None || only == Conditional {
			if v, ok := getAttr(n, ConditionalAttr); ok {
				sites = append(sites, Site{ID: len(sites), Node: n, Directive: Directive{
					Kind: Conditional,
					Raw:  v,
					Expr: strings.TrimSpace(v),
				}})
			}
		}
		if only == None || only == Repeat {
			if v, ok := getAttr(n, RepeatAttr); ok {
				d := Directive{Kind: Repeat, Raw: v}
				d.Binder, d.Path, d.err = ParseRepeat(v)
				sites = append(sites, Site{ID: len(sites), Node: n, Directive: d})
			}
		}
		return true
	})
	return sites
}

// declarationKeywords may prefix a repeat binder and carry no meaning.
var declarationKeywords = map[string]bool{
	"let":   true,
	"const": true,
	"var":   true,
}

// ParseRepeat parses `<binder> of <path>`. Whitespace runs count as a
// single space and the binder may be preceded by let, const or var.
func ParseRepeat(value string) (binder, path string, err error) {
	normalized := strings.Join(strings.Fields(value), " ")
	left, right, ok := strings.Cut(normalized, " of ")
	if !ok {
		return "", "", fmt.Errorf("%w: expected \"<name> of <path>\", got %q", ErrMalformedRepeat, value)
	}

	fields := strings.Fields(left)
	switch {
	case len(fields) == 1:
		binder = fields[0]
	case len(fields) == 2 && declarationKeywords[fields[0]]:
		binder = fields[1]
	default:
		return "", "", fmt.Errorf("%w: cannot read a loop variable from %q", ErrMalformedRepeat, left)
	}
	if !hclsyntax.ValidIdentifier(binder) {
		return "", "", fmt.Errorf("%w: %q is not a valid loop variable name", ErrMalformedRepeat, binder)
	}

	path = strings.TrimSpace(right)
	if path == "" || strings.ContainsAny(path, " \t") {
		return "", "", fmt.Errorf("%w: invalid collection path %q", ErrMalformedRepeat, right)
	}
	return binder, path, nil
}
