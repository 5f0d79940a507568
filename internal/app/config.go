package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/ngstatic/internal/config"
	"github.com/vk/ngstatic/internal/ctxlog"
)

// Keys of Config.Explicit. They match the project file attribute names.
const (
	KeyOutputDir           = "output_dir"
	KeyAutoRemoveOutputDir = "auto_remove_output_dir"
	KeyShowWarnings        = "show_warnings"
	KeyBeautify            = "beautify"
	KeyWorkers             = "workers"
	KeyIndent              = "indent"
	KeyBreakAroundTags     = "break_around_tags"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SourceDir  string
	ConfigPath string // project file; empty means SourceDir/ngstatic.hcl if present

	OutputDir           string
	AutoRemoveOutputDir bool
	ShowWarnings        bool
	Beautify            bool
	Workers             int
	Indent              string
	BreakAroundTags     []string

	Watch               bool
	ServePort           int
	LiveReloadURL       string
	LiveReloadNamespace string

	LogFormat string
	LogLevel  string
	NoColor   bool

	// Explicit lists the build options given on the command line. The
	// project file does not override them.
	Explicit map[string]bool
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		SourceDir:           ".",
		OutputDir:           "build",
		AutoRemoveOutputDir: true,
		ShowWarnings:        true,
		Beautify:            true,
		Workers:             1,
		Indent:              "    ",
		BreakAroundTags:     []string{"li", "meta", "title"},
		LogFormat:           "text",
		LogLevel:            "info",
	}
}

// NewConfig validates cfg and returns a copy ready for NewApp. It rejects
// empty directories, a worker count below one, an out of range port, and
// serve or live reload options given without watch mode.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SourceDir == "" {
		return nil, errors.New("SourceDir is a required configuration field and cannot be empty")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OutputDir cannot be empty")
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.ServePort < 0 || cfg.ServePort > 65535 {
		return nil, fmt.Errorf("serve port %d is out of range", cfg.ServePort)
	}
	if !cfg.Watch && (cfg.ServePort > 0 || cfg.LiveReloadURL != "") {
		return nil, errors.New("serve port and live reload URL require watch mode")
	}
	return &cfg, nil
}

// projectFilePath returns the project file to read and whether it must exist.
func (c *Config) projectFilePath() (string, bool) {
	if c.ConfigPath != "" {
		return c.ConfigPath, true
	}
	return filepath.Join(c.SourceDir, config.DefaultFileName), false
}

// withProjectFile returns a copy of c with the project file applied to every
// build option that was not given explicitly. The file is read on every call
// so a running watch picks up edits.
func (c *Config) withProjectFile(ctx context.Context) (*Config, error) {
	out := *c
	path, required := c.projectFilePath()

	file, err := config.Load(ctx, path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return &out, nil
		}
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Applying project file.", "path", path)

	if file.OutputDir != nil && !c.Explicit[KeyOutputDir] {
		out.OutputDir = *file.OutputDir
		if !filepath.IsAbs(out.OutputDir) {
			out.OutputDir = filepath.Join(filepath.Dir(path), out.OutputDir)
		}
	}
	if file.AutoRemoveOutputDir != nil && !c.Explicit[KeyAutoRemoveOutputDir] {
		out.AutoRemoveOutputDir = *file.AutoRemoveOutputDir
	}
	if file.ShowWarnings != nil && !c.Explicit[KeyShowWarnings] {
		out.ShowWarnings = *file.ShowWarnings
	}
	if file.Beautify != nil && !c.Explicit[KeyBeautify] {
		out.Beautify = *file.Beautify
	}
	if file.Workers != nil && !c.Explicit[KeyWorkers] {
		out.Workers = *file.Workers
	}
	if file.Indent != nil && !c.Explicit[KeyIndent] {
		out.Indent = *file.Indent
	}
	if file.BreakAroundTags != nil && !c.Explicit[KeyBreakAroundTags] {
		out.BreakAroundTags = file.BreakAroundTags
	}
	return &out, nil
}
