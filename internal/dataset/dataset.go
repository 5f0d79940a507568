// Package dataset loads data files into the read-only scope that templates
// are rendered against. Each file contributes one top-level entry named
// after the file without its extension.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/ngstatic/internal/ctxlog"
	"github.com/vk/ngstatic/internal/expr"
	"github.com/vk/ngstatic/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

// Extensions lists the data file extensions Load understands.
var Extensions = []string{".json", ".yaml", ".yml"}

// LoadError reports a data file that could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("data file %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load decodes every file in paths and returns the dataset. Two files that
// map to the same key are rejected. The returned scope must not be mutated
// once rendering starts.
func Load(ctx context.Context, paths []string) (expr.Scope, error) {
	logger := ctxlog.FromContext(ctx)
	data := make(expr.Scope, len(paths))
	origin := make(map[string]string, len(paths))

	for _, path := range paths {
		key := fsutil.BaseName(path)
		if prev, dup := origin[key]; dup {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("key %q is already provided by %s", key, prev)}
		}

		val, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		data[key] = val
		origin[key] = path
		logger.Debug("Data file loaded.", "path", path, "key", key, "type", val.Type().FriendlyName())
	}
	return data, nil
}

// LoadFile decodes a single JSON or YAML file into a cty value.
func LoadFile(path string) (cty.Value, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return cty.NilVal, &LoadError{Path: path, Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		src, err = yamlToJSON(src)
		if err != nil {
			return cty.NilVal, &LoadError{Path: path, Err: err}
		}
	}

	val, err := DecodeJSON(src)
	if err != nil {
		return cty.NilVal, &LoadError{Path: path, Err: err}
	}
	return val, nil
}

// DecodeJSON decodes a JSON document into a cty value whose type is implied
// by the document itself: objects become object types, arrays tuples.
func DecodeJSON(src []byte) (cty.Value, error) {
	ty, err := ctyjson.ImpliedType(src)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(src, ty)
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share one
// decoding path.
func yamlToJSON(src []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeYAML(doc))
}

// normalizeYAML converts mappings with non-string keys, which
// encoding/json cannot marshal, into string-keyed maps.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, elem := range t {
			t[k] = normalizeYAML(elem)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			out[fmt.Sprint(k)] = normalizeYAML(elem)
		}
		return out
	case []any:
		for i, elem := range t {
			t[i] = normalizeYAML(elem)
		}
		return t
	}
	return v
}
