package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/ngstatic/internal/fsutil"
)

func TestListByExtension(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	for _, name := range []string{"b.html", "a.html", "data.json", "notes.txt", "UPPER.HTML"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.html"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested.html", "inner.html"), []byte("x"), 0o644))

	// --- Act ---
	html, err := fsutil.ListByExtension(dir, ".html")
	require.NoError(t, err)
	data, err := fsutil.ListByExtension(dir, ".json", ".yaml")
	require.NoError(t, err)

	// --- Assert ---
	require.Equal(t, []string{
		filepath.Join(dir, "UPPER.HTML"),
		filepath.Join(dir, "a.html"),
		filepath.Join(dir, "b.html"),
	}, html)
	require.Equal(t, []string{filepath.Join(dir, "data.json")}, data)
}

func TestListByExtension_IncludesSymlinks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.html"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(dir, "a.html"), filepath.Join(dir, "b.html")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing.html"), filepath.Join(dir, "c.html")))

	files, err := fsutil.ListByExtension(dir, ".html")

	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.html"),
		filepath.Join(dir, "b.html"),
		filepath.Join(dir, "c.html"),
	}, files)
}

func TestListByExtension_MissingDir(t *testing.T) {
	t.Parallel()
	_, err := fsutil.ListByExtension(filepath.Join(t.TempDir(), "missing"), ".html")
	require.Error(t, err)
}

func TestBaseName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "site", fsutil.BaseName("/tmp/x/site.json"))
	require.Equal(t, "my.config", fsutil.BaseName("my.config.yaml"))
}

func TestIsWithin(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		path string
		dir  string
		want bool
	}{
		{name: "same directory", path: "/a/b", dir: "/a/b", want: true},
		{name: "child", path: "/a/b/c", dir: "/a/b", want: true},
		{name: "sibling with shared prefix", path: "/a/bc", dir: "/a/b", want: false},
		{name: "parent", path: "/a", dir: "/a/b", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fsutil.IsWithin(tc.path, tc.dir)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
