package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/ngstatic/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func ptr[T any](v T) *T { return &v }

func TestLoad(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := writeConfig(t, `
output_dir             = "public"
auto_remove_output_dir = false
show_warnings          = false
beautify               = true
workers                = 4
indent                 = "  "
break_around_tags      = ["li", "td"]
`)

	// --- Act ---
	file, err := config.Load(context.Background(), path)

	// --- Assert ---
	require.NoError(t, err)
	want := &config.File{
		OutputDir:           ptr("public"),
		AutoRemoveOutputDir: ptr(false),
		ShowWarnings:        ptr(false),
		Beautify:            ptr(true),
		Workers:             ptr(4),
		Indent:              ptr("  "),
		BreakAroundTags:     []string{"li", "td"},
	}
	if diff := cmp.Diff(want, file); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_PartialFileLeavesOthersUnset(t *testing.T) {
	t.Parallel()

	file, err := config.Load(context.Background(), writeConfig(t, `output_dir = "dist"`))

	require.NoError(t, err)
	require.Equal(t, "dist", *file.OutputDir)
	require.Nil(t, file.Workers)
	require.Nil(t, file.Beautify)
	require.Nil(t, file.BreakAroundTags)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "syntax error", content: `output_dir = `, wantErr: "failed to parse"},
		{name: "unknown attribute", content: `colour = "red"`, wantErr: "Unsupported argument"},
		{name: "wrong type", content: `workers = "many"`, wantErr: "failed to decode"},
		{name: "invalid workers", content: `workers = 0`, wantErr: "workers must be at least 1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load(context.Background(), writeConfig(t, tc.content))

			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(context.Background(), filepath.Join(t.TempDir(), "nope.hcl"))

	require.ErrorIs(t, err, os.ErrNotExist)
}
