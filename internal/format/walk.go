package format

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Expand resolves paths to the list of files to format. Files named
// explicitly are kept whatever their extension; directories contribute the
// files matching the configured extensions, skipping excluded directories.
func (f *Formatter) Expand(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && f.excluded(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if f.matches(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	return files, nil
}

func (f *Formatter) excluded(dir string) bool {
	return slices.Contains(f.cfg.Exclude, dir)
}

func (f *Formatter) matches(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range f.cfg.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
