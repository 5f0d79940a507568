package lookup_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/ngstatic/internal/lookup"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

func mustJSON(t *testing.T, src string) cty.Value {
	t.Helper()
	ty, err := ctyjson.ImpliedType([]byte(src))
	require.NoError(t, err)
	v, err := ctyjson.Unmarshal([]byte(src), ty)
	require.NoError(t, err)
	return v
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	require.Equal(t, "a.0.b", lookup.Normalize("a[0].b"))
	require.Equal(t, "a.0.b", lookup.Normalize("a.0.b"))
	require.Equal(t, "0.name", lookup.Normalize("[0].name"))
	require.Equal(t, "a.key.c", lookup.Normalize(".a[key].c"))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	data := mustJSON(t, `{
		"site": {"title": "Home", "tags": ["go", "html"], "owner": null},
		"pages": [{"name": "one"}, {"name": "two"}],
		"count": 3
	}`)

	testCases := []struct {
		name  string
		path  string
		want  cty.Value
		found bool
	}{
		{name: "nested attribute", path: "site.title", want: cty.StringVal("Home"), found: true},
		{name: "bracket index", path: "pages[1].name", want: cty.StringVal("two"), found: true},
		{name: "dotted index", path: "pages.0.name", want: cty.StringVal("one"), found: true},
		{name: "list value itself", path: "site.tags", want: cty.TupleVal([]cty.Value{cty.StringVal("go"), cty.StringVal("html")}), found: true},
		{name: "missing attribute", path: "site.subtitle", found: false},
		{name: "index out of range", path: "pages[5].name", found: false},
		{name: "non numeric index", path: "pages.first", found: false},
		{name: "through null", path: "site.owner.name", found: false},
		{name: "through scalar", path: "count.value", found: false},
		{name: "empty segment", path: "site.", found: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, found := lookup.Resolve(data, tc.path)
			require.Equal(t, tc.found, found)
			if tc.found {
				require.True(t, tc.want.RawEquals(got), "got %#v", got)
			}
		})
	}
}

func TestResolve_MapValue(t *testing.T) {
	t.Parallel()
	m := cty.MapVal(map[string]cty.Value{"k": cty.NumberIntVal(1)})

	got, found := lookup.Resolve(m, "[k]")
	require.True(t, found)
	require.True(t, cty.NumberIntVal(1).RawEquals(got))

	_, found = lookup.Resolve(m, "missing")
	require.False(t, found)
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	data := mustJSON(t, `{"a": {"b": [1, 2]}}`)
	before := data.GoString()

	_, _ = lookup.Resolve(data, "a.b[1]")
	_, _ = lookup.Resolve(data, "a.c")

	require.Equal(t, before, data.GoString())
}
