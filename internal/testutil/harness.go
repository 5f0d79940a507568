// Package testutil holds the harness shared by the integration tests.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/ngstatic/internal/app"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput     string
	ConsoleOutput string
	Err           error
	SourceDir     string
	OutputDir     string
}

// Output returns the content of a rendered file, failing the test when it
// does not exist.
func (r *HarnessResult) Output(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(r.OutputDir, name))
	require.NoError(t, err)
	return string(b)
}

// WriteFiles writes files into dir, creating subdirectories as needed.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// RunIntegrationTest writes files into a fresh source directory and runs one
// build with a default configuration adjusted by mutate, which may be nil.
func RunIntegrationTest(t *testing.T, files map[string]string, mutate func(*app.Config)) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, mutate)
}

// RunIntegrationTestWithContext is RunIntegrationTest with a caller-provided
// context.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, mutate func(*app.Config)) *HarnessResult {
	t.Helper()

	root := t.TempDir()
	srcDir := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(srcDir, 0o755))
	WriteFiles(t, srcDir, files)

	cfg := app.DefaultConfig()
	cfg.SourceDir = srcDir
	cfg.OutputDir = filepath.Join(root, "build")
	cfg.LogLevel = "debug"
	cfg.NoColor = true
	if mutate != nil {
		mutate(&cfg)
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	consoleBuffer := &SafeBuffer{}
	runErr := app.NewApp(consoleBuffer, logBuffer, appConfig).Run(ctx)

	if os.Getenv("NGSTATIC_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput:     logBuffer.String(),
		ConsoleOutput: consoleBuffer.String(),
		Err:           runErr,
		SourceDir:     srcDir,
		OutputDir:     appConfig.OutputDir,
	}
}
