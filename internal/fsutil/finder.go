// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ListByExtension returns the regular files and symbolic links directly
// inside dir whose name ends with one of the given extensions.
// Subdirectories are not descended into; links are not resolved. The result is sorted by file name, which is the order os.ReadDir
// reports.
func ListByExtension(dir string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if mode := entry.Type(); !mode.IsRegular() && mode&fs.ModeSymlink == 0 {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		for _, want := range extensions {
			if ext == want {
				files = append(files, filepath.Join(dir, name))
				break
			}
		}
	}
	return files, nil
}

// BaseName returns the file name of path without its extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// IsWithin reports whether path is dir itself or lies below it. Both paths
// are made absolute and cleaned first.
func IsWithin(path, dir string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false, nil
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))), nil
}
