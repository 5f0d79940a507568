// Package site builds a whole source directory: it discovers templates and
// data files, loads the dataset once and renders every template into the
// output directory.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/ngstatic/internal/ctxlog"
	"github.com/vk/ngstatic/internal/dataset"
	"github.com/vk/ngstatic/internal/directive"
	"github.com/vk/ngstatic/internal/expr"
	"github.com/vk/ngstatic/internal/fsutil"
	"github.com/vk/ngstatic/internal/render"
	"golang.org/x/sync/errgroup"
)

// TemplateExtension marks the files that are rendered.
const TemplateExtension = ".html"

var (
	// ErrFilesFailed is returned, wrapped, when at least one template could
	// not be rendered. The other templates are still written.
	ErrFilesFailed = errors.New("some files failed to render")
	// ErrOutputExists means the output directory exists and automatic
	// removal is disabled.
	ErrOutputExists = errors.New("output directory already exists")
	// ErrUnsafeOutputDir means removing the output directory would remove
	// the sources.
	ErrUnsafeOutputDir = errors.New("output directory contains the source directory")
)

// Options configure a Builder.
type Options struct {
	SourceDir           string
	OutputDir           string
	AutoRemoveOutputDir bool
	// Workers is the number of templates rendered at the same time. Values
	// below 1 mean 1.
	Workers int
}

// Reporter receives progress for a person watching the build.
type Reporter interface {
	Step(text string)
	Done(text string)
	Fail(file string, err error)
}

// Result lists what a build produced.
type Result struct {
	// Written holds the paths of the rendered files in the output directory.
	Written []string
	// Failed holds the names of the templates that were skipped.
	Failed []string
}

// Builder renders a source directory.
type Builder struct {
	opts     Options
	renderer *render.Renderer
	reporter Reporter
}

// New creates a Builder.
func New(opts Options, renderer *render.Renderer, reporter Reporter) *Builder {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Builder{opts: opts, renderer: renderer, reporter: reporter}
}

// Build runs one complete build. Errors that concern the whole run, such as
// an unreadable data file, an unusable output directory or an I/O error
// while rendering, are returned before anything is published. Templates
// whose directives cannot be applied are skipped and reported through the
// returned error, which then wraps ErrFilesFailed; the Result is valid in
// that case.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build started.", "source", b.opts.SourceDir, "output", b.opts.OutputDir, "workers", b.opts.Workers)

	b.reporter.Step("Finding files")
	templates, err := fsutil.ListByExtension(b.opts.SourceDir, TemplateExtension)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	dataFiles, err := fsutil.ListByExtension(b.opts.SourceDir, dataset.Extensions...)
	if err != nil {
		return nil, fmt.Errorf("failed to list data files: %w", err)
	}
	logger.Info("Files found.", "templates", len(templates), "data_files", len(dataFiles))

	b.reporter.Step("Reading data")
	data, err := dataset.Load(ctx, dataFiles)
	if err != nil {
		return nil, err
	}

	outDir, err := b.checkOutputDir()
	if err != nil {
		return nil, err
	}

	stageDir, err := os.MkdirTemp(filepath.Dir(outDir), "."+filepath.Base(outDir)+"-tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(stageDir); err != nil {
			logger.Warn("Failed to remove staging directory.", "path", stageDir, "error", err)
		}
	}()
	if err := os.Chmod(stageDir, 0o755); err != nil {
		return nil, err
	}

	b.reporter.Step("Rendering files")
	res, err := b.renderAll(ctx, templates, data, stageDir)
	if err != nil {
		return nil, err
	}

	if err := b.publish(stageDir, outDir); err != nil {
		return nil, err
	}
	for i, path := range res.Written {
		res.Written[i] = filepath.Join(outDir, filepath.Base(path))
	}
	b.reporter.Done("Rendering files finished")
	logger.Info("Build finished.", "written", len(res.Written), "failed", len(res.Failed))

	if len(res.Failed) > 0 {
		return res, fmt.Errorf("%w: %s", ErrFilesFailed, strings.Join(res.Failed, ", "))
	}
	return res, nil
}

// checkOutputDir resolves the output directory and makes sure the build may
// replace it.
func (b *Builder) checkOutputDir() (string, error) {
	outDir, err := filepath.Abs(b.opts.OutputDir)
	if err != nil {
		return "", err
	}

	unsafe, err := fsutil.IsWithin(b.opts.SourceDir, outDir)
	if err != nil {
		return "", err
	}
	if unsafe {
		return "", fmt.Errorf("%w: %s", ErrUnsafeOutputDir, outDir)
	}

	st, err := os.Stat(outDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return outDir, nil
	case err != nil:
		return "", fmt.Errorf("failed to access output directory: %w", err)
	case !st.IsDir():
		return "", fmt.Errorf("output path %q exists and is not a directory", outDir)
	case !b.opts.AutoRemoveOutputDir:
		return "", fmt.Errorf("%w: %s", ErrOutputExists, outDir)
	}
	return outDir, nil
}

// publish moves the staged files onto the output directory.
func (b *Builder) publish(stageDir, outDir string) error {
	if b.opts.AutoRemoveOutputDir {
		if err := os.RemoveAll(outDir); err != nil {
			return fmt.Errorf("failed to remove output directory: %w", err)
		}
	}
	if err := os.Rename(stageDir, outDir); err != nil {
		return fmt.Errorf("failed to publish output directory: %w", err)
	}
	return nil
}

// renderAll renders every template into dir with at most Workers templates
// in flight. A template the directives reject is recorded as failed; an I/O
// error or cancellation stops the whole run.
func (b *Builder) renderAll(ctx context.Context, templates []string, data expr.Scope, dir string) (*Result, error) {
	errs := make([]error, len(templates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for i, path := range templates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := b.renderFile(gctx, path, data, dir)
			var cfgErr *directive.ConfigurationError
			if err != nil && !errors.As(err, &cfgErr) {
				return err
			}
			errs[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{}
	for i, path := range templates {
		name := filepath.Base(path)
		if errs[i] != nil {
			b.reporter.Fail(name, errs[i])
			res.Failed = append(res.Failed, name)
			continue
		}
		res.Written = append(res.Written, filepath.Join(dir, name))
	}
	return res, nil
}

func (b *Builder) renderFile(ctx context.Context, path string, data expr.Scope, dir string) error {
	name := filepath.Base(path)
	ctx, logger := ctxlog.With(ctx, "template", name)
	b.reporter.Step("Rendering file " + name)

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open template: %w", err)
	}
	defer src.Close()

	var buf bytes.Buffer
	if err := b.renderer.Render(ctx, name, src, data, &buf); err != nil {
		logger.Error("Template failed.", "error", err)
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
