package config

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/ngstatic/internal/ctxlog"
)

// Load parses and decodes the project file at path. A missing file is
// reported with an error wrapping os.ErrNotExist.
func Load(ctx context.Context, path string) (*File, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading project file.", "path", path)

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to access project file: %w", err)
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse project file %s: %w", path, diags)
	}

	var file File
	diags = gohcl.DecodeBody(hclFile.Body, nil, &file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode project file %s: %w", path, diags)
	}

	if diags := file.validate(hclFile.Body); diags.HasErrors() {
		return nil, fmt.Errorf("invalid project file %s: %w", path, diags)
	}

	logger.Debug("Project file loaded.", "path", path)
	return &file, nil
}

func (f *File) validate(body hcl.Body) hcl.Diagnostics {
	if f.Workers == nil || *f.Workers >= 1 {
		return nil
	}
	diag := &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid worker count",
		Detail:   fmt.Sprintf("workers must be at least 1, got %d.", *f.Workers),
	}
	if attrs, _ := body.JustAttributes(); attrs["workers"] != nil {
		diag.Subject = attrs["workers"].Expr.Range().Ptr()
	}
	return hcl.Diagnostics{diag}
}
