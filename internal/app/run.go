package app

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/vk/ngstatic/internal/beautify"
	"github.com/vk/ngstatic/internal/config"
	"github.com/vk/ngstatic/internal/ctxlog"
	"github.com/vk/ngstatic/internal/dataset"
	"github.com/vk/ngstatic/internal/livereload"
	"github.com/vk/ngstatic/internal/render"
	"github.com/vk/ngstatic/internal/site"
	"github.com/vk/ngstatic/internal/watch"
)

// Run builds the site once. In watch mode it then keeps rebuilding on
// changes until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "source", a.config.SourceDir, "watch", a.config.Watch)

	_, err := a.Build(ctx)
	if !a.config.Watch {
		return err
	}
	if err != nil {
		a.logger.Error("Initial build failed.", "error", err)
	}
	return a.watch(ctx)
}

// Build runs a single build with the project file applied.
func (a *App) Build(ctx context.Context) (*site.Result, error) {
	cfg, err := a.config.withProjectFile(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := NewConfig(*cfg); err != nil {
		return nil, err
	}

	renderer := render.New(render.Options{
		ShowWarnings: cfg.ShowWarnings,
		Beautify:     cfg.Beautify,
		Format: beautify.Options{
			Indent:          cfg.Indent,
			BreakAroundTags: cfg.BreakAroundTags,
		},
	}, a.console)

	builder := site.New(site.Options{
		SourceDir:           cfg.SourceDir,
		OutputDir:           cfg.OutputDir,
		AutoRemoveOutputDir: cfg.AutoRemoveOutputDir,
		Workers:             cfg.Workers,
	}, renderer, a.console)

	return builder.Build(ctx)
}

// isSourceFile reports whether a change to the named file affects the build.
func (a *App) isSourceFile(name string) bool {
	if name == config.DefaultFileName || (a.config.ConfigPath != "" && name == filepath.Base(a.config.ConfigPath)) {
		return true
	}
	ext := filepath.Ext(name)
	if ext == site.TemplateExtension {
		return true
	}
	for _, dataExt := range dataset.Extensions {
		if ext == dataExt {
			return true
		}
	}
	return false
}

func (a *App) watch(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	w, err := watch.New(a.config.SourceDir, watch.DefaultDebounce, a.isSourceFile)
	if err != nil {
		return err
	}
	defer w.Close()

	if a.config.ServePort > 0 {
		cfg, err := a.config.withProjectFile(ctx)
		if err != nil {
			return err
		}
		outDir, err := filepath.Abs(cfg.OutputDir)
		if err != nil {
			return err
		}
		if err := a.startPreviewServer(ctx, outDir); err != nil {
			return err
		}
		defer a.closePreviewServer(ctx)
	}

	var notifier *livereload.Notifier
	if a.config.LiveReloadURL != "" {
		notifier, err = livereload.Dial(ctx, livereload.Options{
			URL:       a.config.LiveReloadURL,
			Namespace: a.config.LiveReloadNamespace,
		})
		if err != nil {
			logger.Warn("Live reload disabled.", "error", err)
			notifier = nil
		} else {
			defer notifier.Close()
		}
	}

	err = w.Run(ctx, func(ctx context.Context, changed []string) {
		logger.Info("🔁 Rebuilding.", "changed", changed)
		res, err := a.Build(ctx)
		if err != nil && !errors.Is(err, site.ErrFilesFailed) {
			logger.Error("Rebuild failed.", "error", err)
			return
		}
		if notifier != nil {
			files := make([]string, len(res.Written))
			for i, path := range res.Written {
				files[i] = filepath.Base(path)
			}
			notifier.Rebuilt(ctx, files, res.Failed)
		}
	})
	logger.Debug("App.Run method finished.")
	return err
}
