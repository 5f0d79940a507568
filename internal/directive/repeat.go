package directive

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/ngstatic/internal/ctxlog"
	"github.com/vk/ngstatic/internal/expr"
	"github.com/vk/ngstatic/internal/lookup"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/net/html"
)

// Repeats expands every repeat site. For each item of the collection a
// clone of the element is appended as the last child of the element's
// parent, with placeholders substituted against data plus the loop
// variable; the original element is removed afterwards. Repeat sites nested
// in a repeated element are expanded inside each clone with the enclosing
// loop variables in scope.
//
// The first site that cannot be applied stops the pass with a
// *ConfigurationError; the document must then be discarded.
func (p *Processor) Repeats(ctx context.Context, doc *Document, data expr.Scope) error {
	logger := ctxlog.FromContext(ctx)

	for _, site := range doc.SitesOf(Repeat) {
		if !attached(site.Node, doc.Root) {
			logger.Debug("Skipping repeat outside the live tree.", "site", site.ID)
			continue
		}
		if err := p.expand(ctx, doc, site.Node, site.Directive, data); err != nil {
			return err
		}
	}
	return nil
}

// expand replaces the template element n by one clone per item.
func (p *Processor) expand(ctx context.Context, doc *Document, n *html.Node, d Directive, scope expr.Scope) error {
	if d.err != nil {
		return &ConfigurationError{Attr: d.Attr(), Value: d.Raw, Err: d.err}
	}
	items, err := resolveItems(scope, d.Path)
	if err != nil {
		return &ConfigurationError{Attr: d.Attr(), Value: d.Raw, Err: err}
	}

	ctxlog.FromContext(ctx).Debug("Expanding repeat.", "binder", d.Binder, "path", d.Path, "items", len(items))

	removeAttr(n, d.Attr())
	parent := n.Parent
	for _, item := range items {
		itemScope := scope.With(d.Binder, item)

		clone := cloneTree(n)
		if err := p.expandNested(ctx, doc, clone, itemScope); err != nil {
			return err
		}
		p.substituteTree(ctx, doc, clone, itemScope, false)

		parent.AppendChild(clone)
		doc.expanded[clone] = true
	}
	detach(n)
	return nil
}

// expandNested expands the repeat sites inside a fresh clone. The clone is
// not yet in the document, so its sites are scanned on their own.
func (p *Processor) expandNested(ctx context.Context, doc *Document, clone *html.Node, scope expr.Scope) error {
	for _, site := range scanSites(clone, Repeat) {
		if site.Node == clone || !attached(site.Node, clone) {
			continue
		}
		if err := p.expand(ctx, doc, site.Node, site.Directive, scope); err != nil {
			return err
		}
	}
	return nil
}

// resolveItems finds the collection named by path. The part before the
// first dot names a scope entry and the rest is resolved inside it; a path
// without a dot names a scope entry directly.
func resolveItems(scope expr.Scope, path string) ([]cty.Value, error) {
	var (
		val   cty.Value
		found bool
	)
	if head, rest, ok := strings.Cut(path, "."); ok {
		if root, exists := scope[head]; exists {
			val, found = lookup.Resolve(root, rest)
		}
	} else {
		val, found = scope[path]
	}
	if !found || val == cty.NilVal || val.IsNull() {
		return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path)
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("%w: %q is not known", ErrPathNotFound, path)
	}

	val, _ = val.Unmark()
	ty := val.Type()
	if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotIterable, path, ty.FriendlyName())
	}

	items := make([]cty.Value, 0, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		_, item := it.Element()
		items = append(items, item)
	}
	return items, nil
}
