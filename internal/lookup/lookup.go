// Package lookup resolves dotted and bracketed paths such as `pages[0].title`
// against loosely typed cty values decoded from data files.
package lookup

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

var bracketSegment = regexp.MustCompile(`\[(\w+)\]`)

// Normalize rewrites bracketed segments into dotted form and strips a single
// leading dot, so that `a[0].b` and `a.0.b` are the same path.
func Normalize(path string) string {
	path = bracketSegment.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(path, ".")
}

// Segments splits a path into its normalized segments.
func Segments(path string) []string {
	return strings.Split(Normalize(path), ".")
}

// Resolve walks path through root one segment at a time. The second result
// is false as soon as a segment cannot be found at its depth; the walk never
// panics on null, unknown or scalar values.
func Resolve(root cty.Value, path string) (cty.Value, bool) {
	current := root
	for _, segment := range Segments(path) {
		next, ok := Step(current, segment)
		if !ok {
			return cty.NilVal, false
		}
		current = next
	}
	return current, true
}

// Step descends a single segment into v: an object attribute, a map key, or
// a decimal index into a list or tuple.
func Step(v cty.Value, segment string) (cty.Value, bool) {
	if v == cty.NilVal || !v.IsKnown() || v.IsNull() {
		return cty.NilVal, false
	}
	v, _ = v.Unmark()
	ty := v.Type()

	switch {
	case ty.IsObjectType():
		if !ty.HasAttribute(segment) {
			return cty.NilVal, false
		}
		return v.GetAttr(segment), true

	case ty.IsMapType():
		key := cty.StringVal(segment)
		if !v.HasIndex(key).True() {
			return cty.NilVal, false
		}
		return v.Index(key), true

	case ty.IsListType() || ty.IsTupleType():
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= v.LengthInt() {
			return cty.NilVal, false
		}
		return v.Index(cty.NumberIntVal(int64(idx))), true
	}
	return cty.NilVal, false
}
