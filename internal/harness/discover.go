package harness

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// ExpandTestDirs returns every file under dirs whose extension matches ext
// (case-insensitively), searched recursively and sorted. A missing
// directory is an error.
func ExpandTestDirs(dirs []string, ext string) ([]string, error) {
	seen := make(map[string]bool)
	var tests []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ext) {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				tests = append(tests, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("expand test dir %s: %w", dir, err)
		}
	}
	slices.Sort(tests)
	return tests, nil
}

// swapExt replaces the extension of path.
func swapExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
