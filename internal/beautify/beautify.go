// Package beautify writes a parsed HTML document as indented markup: block
// elements on their own lines, inline content kept together on one line,
// and whitespace-sensitive elements written verbatim.
package beautify

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Options control the layout of the output.
type Options struct {
	// Indent is written once per nesting level.
	Indent string
	// BreakAroundTags are extra element names that always start a new line.
	BreakAroundTags []string
}

// DefaultOptions returns four-space indentation with line breaks around
// li, meta and title.
func DefaultOptions() Options {
	return Options{
		Indent:          "    ",
		BreakAroundTags: []string{"li", "meta", "title"},
	}
}

var blockTags = toSet(
	"html", "head", "body", "base", "link", "meta", "title",
	"address", "article", "aside", "blockquote", "details", "dialog", "dd", "div",
	"dl", "dt", "fieldset", "figcaption", "figure", "footer", "form",
	"h1", "h2", "h3", "h4", "h5", "h6", "header", "hgroup", "hr", "main",
	"nav", "ol", "p", "section", "summary", "ul", "li",
	"table", "caption", "colgroup", "thead", "tbody", "tfoot", "tr", "th", "td",
	"template", "option", "optgroup", "select",
)

// verbatimTags are written exactly as html.Render writes them.
var verbatimTags = toSet(
	"pre", "textarea", "script", "style", "xmp", "iframe", "noembed",
	"noframes", "noscript", "plaintext", "svg", "math",
)

// voidTags never have content or an end tag.
var voidTags = toSet(
	"area", "base", "br", "col", "embed", "hr", "img", "input", "keygen",
	"link", "meta", "param", "source", "track", "wbr",
)

func toSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

type formatter struct {
	buf    bytes.Buffer
	indent string
	breaks map[string]bool
}

// Format writes n and its descendants to w.
func Format(w io.Writer, n *html.Node, opts Options) error {
	f := &formatter{indent: opts.Indent, breaks: toSet(opts.BreakAroundTags...)}
	if err := f.block(n, 0); err != nil {
		return err
	}
	_, err := f.buf.WriteTo(w)
	return err
}

func (f *formatter) line(depth int, s string) {
	f.buf.WriteString(strings.Repeat(f.indent, depth))
	f.buf.WriteString(s)
	f.buf.WriteByte('\n')
}

// breaksLine reports whether n must be laid out on lines of its own.
func (f *formatter) breaksLine(n *html.Node) bool {
	switch n.Type {
	case html.DocumentNode, html.DoctypeNode, html.CommentNode:
		return true
	case html.ElementNode:
		if n.Namespace != "" || blockTags[n.Data] || f.breaks[n.Data] || verbatimTags[n.Data] {
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && f.breaksLine(c) {
				return true
			}
		}
	}
	return false
}

// block lays out a node that starts on its own line.
func (f *formatter) block(n *html.Node, depth int) error {
	switch n.Type {
	case html.DocumentNode:
		return f.children(n, depth)

	case html.DoctypeNode, html.CommentNode:
		s, err := render(n)
		if err != nil {
			return err
		}
		f.line(depth, s)
		return nil

	case html.ElementNode:
		if verbatimTags[n.Data] || voidTags[n.Data] || n.Namespace != "" {
			s, err := render(n)
			if err != nil {
				return err
			}
			f.line(depth, s)
			return nil
		}

		hasBlockChild := false
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if f.breaksLine(c) {
				hasBlockChild = true
				break
			}
		}
		if !hasBlockChild {
			var sb strings.Builder
			if err := f.inline(&sb, n); err != nil {
				return err
			}
			f.line(depth, strings.TrimSpace(sb.String()))
			return nil
		}

		f.line(depth, startTag(n))
		if err := f.children(n, depth+1); err != nil {
			return err
		}
		f.line(depth, "</"+n.Data+">")
	}
	return nil
}

// children lays out the children of n at depth, joining consecutive inline
// children into one line.
func (f *formatter) children(n *html.Node, depth int) error {
	var run strings.Builder
	flush := func() {
		if s := strings.TrimSpace(run.String()); s != "" {
			f.line(depth, s)
		}
		run.Reset()
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f.breaksLine(c) {
			flush()
			if err := f.block(c, depth); err != nil {
				return err
			}
			continue
		}
		if err := f.inline(&run, c); err != nil {
			return err
		}
	}
	flush()
	return nil
}

// inline writes n on the current line, collapsing whitespace in text.
func (f *formatter) inline(sb *strings.Builder, n *html.Node) error {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(collapseSpace(html.EscapeString(n.Data)))
	case html.ElementNode:
		if verbatimTags[n.Data] || voidTags[n.Data] || n.Namespace != "" {
			return html.Render(sb, n)
		}
		sb.WriteString(startTag(n))
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := f.inline(sb, c); err != nil {
				return err
			}
		}
		sb.WriteString("</" + n.Data + ">")
	default:
		return html.Render(sb, n)
	}
	return nil
}

func startTag(n *html.Node) string {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(n.Data)
	for _, a := range n.Attr {
		sb.WriteByte(' ')
		if a.Namespace != "" {
			sb.WriteString(a.Namespace)
			sb.WriteByte(':')
		}
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(a.Val))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	return sb.String()
}

func render(n *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// collapseSpace replaces every run of ASCII whitespace with one space.
func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inSpace := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case ' ', '\t', '\n', '\r', '\f':
			if !inSpace {
				sb.WriteByte(' ')
				inSpace = true
			}
		default:
			sb.WriteByte(c)
			inSpace = false
		}
	}
	return sb.String()
}
