package directive

import (
	"context"

	"github.com/vk/ngstatic/internal/ctxlog"
	"github.com/vk/ngstatic/internal/expr"
)

// Conditionals evaluates every conditional site against data. A truthy
// result keeps the element and strips the attribute; anything else,
// undefined and expression errors included, removes the element and its
// subtree. Sites inside an already removed subtree are not evaluated.
func (p *Processor) Conditionals(ctx context.Context, doc *Document, data expr.Scope) {
	logger := ctxlog.FromContext(ctx)

	for _, site := range doc.SitesOf(Conditional) {
		if !attached(site.Node, doc.Root) {
			logger.Debug("Skipping conditional inside a removed subtree.", "site", site.ID)
			continue
		}

		src := site.Directive.Expr
		keep := false
		res, err := p.eval.Evaluate(src, data)
		switch {
		case err != nil:
			p.invalid(ctx, err)
		case res.Undefined:
			p.undefined(ctx, src, res.Unresolved)
		default:
			keep = expr.Truthy(res.Value)
		}

		logger.Debug("Conditional evaluated.", "site", site.ID, "expression", src, "keep", keep)
		if keep {
			removeAttr(site.Node, site.Directive.Attr())
		} else {
			detach(site.Node)
		}
	}
}
