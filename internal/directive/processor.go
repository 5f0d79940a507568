package directive

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/ngstatic/internal/ctxlog"
	"github.com/vk/ngstatic/internal/expr"
	"github.com/vk/ngstatic/internal/placeholder"
)

// Reporter receives user-facing warnings about a document.
type Reporter interface {
	Warn(file, message string)
}

// Options configure a Processor for one document.
type Options struct {
	// File names the document in warnings and log records.
	File string
	// ShowWarnings enables warnings for expressions that evaluate to
	// undefined. Expression errors are always reported.
	ShowWarnings bool
}

// Processor applies directives to one document. The evaluator may be shared
// between processors; a Processor itself is not safe for concurrent use.
type Processor struct {
	eval     *expr.Evaluator
	reporter Reporter
	opts     Options
}

// NewProcessor creates a Processor. A nil reporter discards warnings.
func NewProcessor(ev *expr.Evaluator, reporter Reporter, opts Options) *Processor {
	return &Processor{eval: ev, reporter: reporter, opts: opts}
}

func (p *Processor) warn(message string) {
	if p.reporter != nil {
		p.reporter.Warn(p.opts.File, message)
	}
}

// undefined reports an expression that evaluated to undefined.
func (p *Processor) undefined(ctx context.Context, src string, unresolved []string) {
	ctxlog.FromContext(ctx).Debug("Expression is undefined.", "expression", src, "unresolved", unresolved)
	if !p.opts.ShowWarnings {
		return
	}
	msg := fmt.Sprintf("the expression '%s' is undefined!", src)
	if len(unresolved) > 0 && (len(unresolved) > 1 || unresolved[0] != src) {
		msg += fmt.Sprintf(" (cannot resolve %s)", strings.Join(unresolved, ", "))
	}
	p.warn(msg)
}

// invalid reports an expression that failed to compile or evaluate.
func (p *Processor) invalid(ctx context.Context, err error) {
	ctxlog.FromContext(ctx).Error("Expression failed.", "error", err)
	p.warn(err.Error())
}

// placeholderIssues adapts placeholder issues to the processor's reporting.
func (p *Processor) placeholderIssues(ctx context.Context) placeholder.IssueFunc {
	return func(issue placeholder.Issue) {
		if issue.Err != nil {
			p.invalid(ctx, issue.Err)
			return
		}
		p.undefined(ctx, issue.Expression, issue.Unresolved)
	}
}
