package directive

import (
	"context"

	"github.com/vk/ngstatic/internal/expr"
	"github.com/vk/ngstatic/internal/placeholder"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Placeholders substitutes the placeholders left in the document after the
// directive passes, using data as the scope. Repeat output was already
// substituted with its loop variables and is left alone, as is the content
// of script and style elements.
func (p *Processor) Placeholders(ctx context.Context, doc *Document, data expr.Scope) {
	p.substituteTree(ctx, doc, doc.Root, data, true)
}

// substituteTree rewrites the text nodes and attribute values below root.
// Subtrees produced by the repeat pass are skipped, except root itself.
func (p *Processor) substituteTree(ctx context.Context, doc *Document, root *html.Node, scope expr.Scope, skipRawText bool) {
	onIssue := p.placeholderIssues(ctx)

	walk(root, func(n *html.Node) bool {
		if n != root && doc.expanded[n] {
			return false
		}
		switch n.Type {
		case html.TextNode:
			n.Data = placeholder.Substitute(n.Data, p.eval, scope, onIssue)
		case html.ElementNode:
			for i := range n.Attr {
				n.Attr[i].Val = placeholder.Substitute(n.Attr[i].Val, p.eval, scope, onIssue)
			}
			if skipRawText && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
				return false
			}
		}
		return true
	})
}
