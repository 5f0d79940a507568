package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "empty source", mutate: func(c *Config) { c.SourceDir = "" }, wantErr: "SourceDir"},
		{name: "empty output", mutate: func(c *Config) { c.OutputDir = "" }, wantErr: "OutputDir"},
		{name: "no workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: "workers must be at least 1"},
		{name: "port out of range", mutate: func(c *Config) { c.Watch = true; c.ServePort = 70000 }, wantErr: "out of range"},
		{name: "serve without watch", mutate: func(c *Config) { c.ServePort = 8080 }, wantErr: "require watch mode"},
		{name: "live reload without watch", mutate: func(c *Config) { c.LiveReloadURL = "http://localhost:35729" }, wantErr: "require watch mode"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			got, err := NewConfig(cfg)

			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, cfg.SourceDir, got.SourceDir)
		})
	}
}

func TestWithProjectFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "ngstatic.hcl"), []byte(`
output_dir    = "public"
show_warnings = false
workers       = 3
indent        = "  "
`), 0o600))

	cfg := DefaultConfig()
	cfg.SourceDir = src
	cfg.Workers = 8
	cfg.Explicit = map[string]bool{KeyWorkers: true}

	// --- Act ---
	got, err := cfg.withProjectFile(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, filepath.Join(src, "public"), got.OutputDir)
	require.False(t, got.ShowWarnings)
	require.Equal(t, 8, got.Workers, "explicit flag wins over the project file")
	require.Equal(t, "  ", got.Indent)
	require.True(t, got.Beautify, "unset attributes keep their value")
	require.Equal(t, "build", cfg.OutputDir, "the receiver is not modified")
}

func TestWithProjectFile_Missing(t *testing.T) {
	t.Parallel()

	t.Run("default path may be absent", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.SourceDir = t.TempDir()

		got, err := cfg.withProjectFile(context.Background())

		require.NoError(t, err)
		require.Equal(t, "build", got.OutputDir)
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.SourceDir = t.TempDir()
		cfg.ConfigPath = filepath.Join(cfg.SourceDir, "custom.hcl")

		_, err := cfg.withProjectFile(context.Background())

		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestIsSourceFile(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ConfigPath = "/etc/site/custom.hcl"
	a := NewApp(io.Discard, io.Discard, &cfg)

	for name, want := range map[string]bool{
		"index.html":   true,
		"site.json":    true,
		"menu.yaml":    true,
		"menu.yml":     true,
		"ngstatic.hcl": true,
		"custom.hcl":   true,
		"notes.txt":    false,
		"other.hcl":    false,
	} {
		require.Equal(t, want, a.isSourceFile(name), name)
	}
}

func TestPreviewHandler(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("<p>hi</p>"), 0o644))
	cfg := DefaultConfig()
	a := NewApp(io.Discard, io.Discard, &cfg)
	srv := httptest.NewServer(a.previewHandler(out))
	t.Cleanup(srv.Close)

	// --- Act & Assert ---
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK\n", string(body))

	resp, err = http.Get(srv.URL + "/index.html")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "<p>hi</p>", string(body))
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newLogger("debug", "json", &buf)

	logger.Debug("hello", "file", "index.html")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "hello", record["msg"])
	require.Equal(t, "index.html", record["file"])
}

func TestNewLogger_UnknownLevelIsInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newLogger("loud", "text", &buf)

	logger.Debug("hidden")
	logger.Info("shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}
