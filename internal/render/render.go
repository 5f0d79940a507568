// Package render turns one HTML template into its final markup: it parses
// the template, applies the directive passes against the dataset and
// serializes the result.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/vk/ngstatic/internal/beautify"
	"github.com/vk/ngstatic/internal/ctxlog"
	"github.com/vk/ngstatic/internal/directive"
	"github.com/vk/ngstatic/internal/expr"
	"golang.org/x/net/html"
)

// Options configure a Renderer.
type Options struct {
	ShowWarnings bool
	Beautify     bool
	Format       beautify.Options
}

// DefaultOptions returns warnings and beautification enabled.
func DefaultOptions() Options {
	return Options{
		ShowWarnings: true,
		Beautify:     true,
		Format:       beautify.DefaultOptions(),
	}
}

// Renderer renders templates. It is safe for concurrent use; every call to
// Render owns its own document tree.
type Renderer struct {
	eval     *expr.Evaluator
	reporter directive.Reporter
	opts     Options
}

// New creates a Renderer that reports warnings to reporter, which may be nil.
func New(opts Options, reporter directive.Reporter) *Renderer {
	return &Renderer{
		eval:     expr.New(),
		reporter: reporter,
		opts:     opts,
	}
}

// Render reads the template src, renders it against data and writes the
// result to w. name identifies the template in warnings and errors. Nothing
// is written to w when rendering fails.
func (r *Renderer) Render(ctx context.Context, name string, src io.Reader, data expr.Scope, w io.Writer) error {
	ctx, logger := ctxlog.With(ctx, "file", name)
	logger.Debug("Rendering template.")

	root, err := html.Parse(src)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}

	doc := directive.Scan(root)
	logger.Debug("Directives scanned.",
		"conditionals", len(doc.SitesOf(directive.Conditional)),
		"repeats", len(doc.SitesOf(directive.Repeat)),
	)

	proc := directive.NewProcessor(r.eval, r.reporter, directive.Options{
		File:         name,
		ShowWarnings: r.opts.ShowWarnings,
	})
	proc.Conditionals(ctx, doc, data)
	if err := proc.Repeats(ctx, doc, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	proc.Placeholders(ctx, doc, data)

	var buf bytes.Buffer
	if r.opts.Beautify {
		err = beautify.Format(&buf, root, r.opts.Format)
	} else {
		err = html.Render(&buf, root)
	}
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", name, err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	logger.Debug("Template rendered.")
	return nil
}
