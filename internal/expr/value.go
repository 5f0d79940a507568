package expr

import (
	"math"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Truthy reports whether v counts as true when deciding a directive branch.
// Null and unknown values, false, zero and the empty string are falsy;
// every collection and object, even an empty one, is truthy.
func Truthy(v cty.Value) bool {
	if v == cty.NilVal || !v.IsKnown() || v.IsNull() {
		return false
	}
	v, _ = v.Unmark()

	switch ty := v.Type(); {
	case ty == cty.Bool:
		return v.True()
	case ty == cty.Number:
		return v.AsBigFloat().Sign() != 0
	case ty == cty.String:
		return v.AsString() != ""
	}
	return true
}

// Stringify renders v as placeholder text. Strings are written as is,
// numbers in their shortest decimal form, null as the empty string,
// sequences as their elements joined by commas and objects as compact JSON.
func Stringify(v cty.Value) string {
	if v == cty.NilVal || !v.IsWhollyKnown() || v.IsNull() {
		return ""
	}
	v, _ = v.UnmarkDeep()
	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Bool:
		s, err := convert.Convert(v, cty.String)
		if err != nil {
			return v.GoString()
		}
		return s.AsString()
	case ty == cty.Number:
		return formatNumber(v)
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		parts := make([]string, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			parts = append(parts, Stringify(elem))
		}
		return strings.Join(parts, ",")
	}

	b, err := ctyjson.Marshal(v, ty)
	if err != nil {
		return v.GoString()
	}
	return string(b)
}

func formatNumber(v cty.Value) string {
	bf := v.AsBigFloat()
	if bf.IsInf() {
		if bf.Sign() < 0 {
			return "-Infinity"
		}
		return "Infinity"
	}
	if bf.IsInt() {
		return bf.Text('f', 0)
	}
	f, _ := bf.Float64()
	if math.IsInf(f, 0) {
		return bf.Text('g', 17)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
