// Package expr compiles and evaluates the small expressions used by
// directives and placeholders. Expressions use HCL native syntax: member
// access (`site.title`), indexing (`pages[0]`, `pages.0`, `m["k"]`),
// arithmetic, comparison, `&&`, `||`, `!`, the conditional operator and
// literals. Evaluation happens against a Scope of cty values.
//
// The logical operators follow truthiness rather than requiring booleans,
// so `user && user.active` and `site.title || "Untitled"` work over any
// data. Collections have no `length` attribute: write `length(list) > 0`
// instead of `list.length > 0`.
package expr

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Scope maps top-level identifiers to their values for one evaluation.
type Scope map[string]cty.Value

// With returns a copy of s with name bound to v. The receiver is left
// untouched, so a parent scope can be shared between loop iterations.
func (s Scope) With(name string, v cty.Value) Scope {
	out := make(Scope, len(s)+1)
	for k, val := range s {
		out[k] = val
	}
	out[name] = v
	return out
}

// Result is the outcome of a successful evaluation. Undefined is set when
// the expression could not produce a value because it references something
// the scope does not contain; Value is then cty.NilVal. Unresolved lists the
// failing references, also for a defined result that fell back on a default
// such as `a.title || a.name`.
type Result struct {
	Value      cty.Value
	Undefined  bool
	Unresolved []string
}

// lookupFailures are diagnostic summaries hclsyntax reports when an index
// or attribute does not exist. They mean the same thing as an unresolved
// reference.
var lookupFailures = map[string]bool{
	"Invalid index":                            true,
	"Unsupported attribute":                    true,
	"Unknown variable":                         true,
	"Attempt to get attribute from null value": true,
	"Attempt to index null value":              true,
}

// Evaluator compiles expressions once and evaluates them many times. It is
// safe for concurrent use.
type Evaluator struct {
	functions map[string]function.Function

	mu    sync.RWMutex
	cache map[string]*compiled
}

type compiled struct {
	expr hclsyntax.Expression
	err  error
}

// New creates an Evaluator with the default function table.
func New() *Evaluator {
	return &Evaluator{
		functions: defaultFunctions(),
		cache:     make(map[string]*compiled),
	}
}

func defaultFunctions() map[string]function.Function {
	return map[string]function.Function{
		"upper":      stdlib.UpperFunc,
		"lower":      stdlib.LowerFunc,
		"trimspace":  stdlib.TrimSpaceFunc,
		"length":     stdlib.LengthFunc,
		"join":       stdlib.JoinFunc,
		"format":     stdlib.FormatFunc,
		"coalesce":   stdlib.CoalesceFunc,
		"keys":       stdlib.KeysFunc,
		"jsonencode": stdlib.JSONEncodeFunc,
	}
}

// Compile parses src, returning a cached result when src was seen before.
// Syntax errors are returned as *ExpressionError.
func (e *Evaluator) Compile(src string) (hclsyntax.Expression, error) {
	e.mu.RLock()
	c, ok := e.cache[src]
	e.mu.RUnlock()
	if ok {
		return c.expr, c.err
	}

	x, diags := hclsyntax.ParseExpression([]byte(src), "expression", hcl.InitialPos)
	c = &compiled{expr: x}
	if diags.HasErrors() {
		c.expr = nil
		c.err = &ExpressionError{Source: src, Diags: diags}
	}

	e.mu.Lock()
	e.cache[src] = c
	e.mu.Unlock()
	return c.expr, c.err
}

// Evaluate compiles src and evaluates it against scope.
//
// A reference the scope cannot satisfy evaluates to null and is recorded in
// Result.Unresolved; the result is Undefined only when the whole expression
// comes out null (or cannot be computed) because of such a reference. The
// logical operators and the conditional operator accept any operand and
// decide with Truthy: `!`, `&&` and `||` short-circuit and `&&`/`||` yield
// the deciding operand rather than a bool. Syntax errors and other
// evaluation failures yield *ExpressionError.
func (e *Evaluator) Evaluate(src string, scope Scope) (Result, error) {
	x, err := e.Compile(src)
	if err != nil {
		return Result{}, err
	}

	if scope == nil {
		scope = Scope{}
	}
	ev := &evaluation{
		src: src,
		ctx: &hcl.EvalContext{
			Variables: scope,
			Functions: e.functions,
		},
		unresolved: make(map[string]struct{}),
	}

	val, diags := ev.value(x)
	unresolved := ev.unresolvedKeys()
	switch {
	case diags.HasErrors() && len(unresolved) > 0:
		return Result{Undefined: true, Unresolved: unresolved}, nil
	case diags.HasErrors():
		return Result{}, &ExpressionError{Source: src, Diags: diags}
	case !val.IsWhollyKnown():
		return Result{Undefined: true, Unresolved: unresolved}, nil
	case val.IsNull() && len(unresolved) > 0:
		return Result{Undefined: true, Unresolved: unresolved}, nil
	}
	return Result{Value: val}, nil
}

// evaluation walks one expression tree. Nodes whose operands may be
// undefined are evaluated here; their children are replaced by literal
// values before the node itself is handed to hclsyntax.
type evaluation struct {
	src        string
	ctx        *hcl.EvalContext
	unresolved map[string]struct{}
}

var undefinedVal = cty.NullVal(cty.DynamicPseudoType)

func (ev *evaluation) value(x hclsyntax.Expression) (cty.Value, hcl.Diagnostics) {
	switch n := x.(type) {
	case *hclsyntax.ParenthesesExpr:
		return ev.value(n.Expression)

	case *hclsyntax.ScopeTraversalExpr:
		val, diags := n.Traversal.TraverseAbs(ev.ctx)
		if diags.HasErrors() {
			return ev.miss(TraversalKey(n.Traversal))
		}
		return val, nil

	case *hclsyntax.RelativeTraversalExpr:
		source, diags := ev.value(n.Source)
		if diags.HasErrors() {
			return cty.DynamicVal, diags
		}
		val, diags := n.Traversal.TraverseRel(source)
		if diags.HasErrors() {
			return ev.miss(ev.text(n.SrcRange))
		}
		return val, nil

	case *hclsyntax.IndexExpr:
		coll, diags := ev.value(n.Collection)
		if diags.HasErrors() {
			return cty.DynamicVal, diags
		}
		key, diags := ev.value(n.Key)
		if diags.HasErrors() {
			return cty.DynamicVal, diags
		}
		val, diags := hcl.Index(coll, key, &n.SrcRange)
		if diags.HasErrors() {
			return ev.miss(ev.text(n.SrcRange))
		}
		return val, nil

	case *hclsyntax.UnaryOpExpr:
		operand, diags := ev.value(n.Val)
		if diags.HasErrors() {
			return cty.DynamicVal, diags
		}
		if n.Op == hclsyntax.OpLogicalNot {
			return cty.BoolVal(!Truthy(operand)), nil
		}
		op := *n
		op.Val = literal(operand, n.Val)
		return op.Value(ev.ctx)

	case *hclsyntax.BinaryOpExpr:
		lhs, diags := ev.value(n.LHS)
		if diags.HasErrors() {
			return cty.DynamicVal, diags
		}
		switch n.Op {
		case hclsyntax.OpLogicalAnd:
			if !Truthy(lhs) {
				return lhs, nil
			}
			return ev.value(n.RHS)
		case hclsyntax.OpLogicalOr:
			if Truthy(lhs) {
				return lhs, nil
			}
			return ev.value(n.RHS)
		}
		rhs, diags := ev.value(n.RHS)
		if diags.HasErrors() {
			return cty.DynamicVal, diags
		}
		op := *n
		op.LHS = literal(lhs, n.LHS)
		op.RHS = literal(rhs, n.RHS)
		return op.Value(ev.ctx)

	case *hclsyntax.ConditionalExpr:
		cond, diags := ev.value(n.Condition)
		if diags.HasErrors() {
			return cty.DynamicVal, diags
		}
		if Truthy(cond) {
			return ev.value(n.TrueResult)
		}
		return ev.value(n.FalseResult)

	case *hclsyntax.FunctionCallExpr:
		call := *n
		call.Args = make([]hclsyntax.Expression, len(n.Args))
		for i, arg := range n.Args {
			v, diags := ev.value(arg)
			if diags.HasErrors() {
				return cty.DynamicVal, diags
			}
			call.Args[i] = literal(v, arg)
		}
		return call.Value(ev.ctx)

	case *hclsyntax.TupleConsExpr:
		tuple := *n
		tuple.Exprs = make([]hclsyntax.Expression, len(n.Exprs))
		for i, elem := range n.Exprs {
			v, diags := ev.value(elem)
			if diags.HasErrors() {
				return cty.DynamicVal, diags
			}
			tuple.Exprs[i] = literal(v, elem)
		}
		return tuple.Value(ev.ctx)
	}

	val, diags := x.Value(ev.ctx)
	for _, diag := range diags {
		if diag.Severity == hcl.DiagError && lookupFailures[diag.Summary] {
			return ev.miss(ev.text(x.Range()))
		}
	}
	return val, diags
}

// miss records key as unresolved and stands in null for its value.
func (ev *evaluation) miss(key string) (cty.Value, hcl.Diagnostics) {
	ev.unresolved[key] = struct{}{}
	return undefinedVal, nil
}

// text returns the source covered by r.
func (ev *evaluation) text(r hcl.Range) string {
	if r.Start.Byte < 0 || r.End.Byte > len(ev.src) || r.Start.Byte >= r.End.Byte {
		return ev.src
	}
	return ev.src[r.Start.Byte:r.End.Byte]
}

// unresolvedKeys returns the recorded references, sorted.
func (ev *evaluation) unresolvedKeys() []string {
	if len(ev.unresolved) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ev.unresolved))
	for k := range ev.unresolved {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func literal(v cty.Value, at hclsyntax.Expression) *hclsyntax.LiteralValueExpr {
	return &hclsyntax.LiteralValueExpr{Val: v, SrcRange: at.Range()}
}

// ExpressionError reports an expression that could not be compiled or
// evaluated.
type ExpressionError struct {
	Source string
	Diags  hcl.Diagnostics
}

func (e *ExpressionError) Error() string {
	var detail string
	for _, diag := range e.Diags {
		if diag.Severity != hcl.DiagError {
			continue
		}
		detail = diag.Summary
		if diag.Detail != "" {
			detail += ": " + diag.Detail
		}
		if diag.Subject != nil {
			detail = fmt.Sprintf("column %d: %s", diag.Subject.Start.Column, detail)
		}
		break
	}
	return fmt.Sprintf("invalid expression %q: %s", e.Source, detail)
}

func (e *ExpressionError) Unwrap() error {
	return e.Diags
}
