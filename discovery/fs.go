package discovery

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
)

// FilesystemDiscovery walks root, honoring exclude globs and dotfile
// policy, and yields a stable (lexical) ordering.
type FilesystemDiscovery struct{}

// NewFilesystemDiscovery returns a ready-to-use FilesystemDiscovery.
func NewFilesystemDiscovery() *FilesystemDiscovery {
	return &FilesystemDiscovery{}
}

// Discover implements Discoverer.
func (f *FilesystemDiscovery) Discover(_ context.Context, cfg Config, root string) ([]string, error) {
	var paths []string

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // best-effort: skip unreadable entries, don't abort the walk
		}

		base := d.Name()
		if !cfg.IncludeDotfiles && strings.HasPrefix(base, ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		if excluded(rel, cfg.ExcludeGlobs) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if walkErr != nil {
		return nil, nil // discovery is best-effort (spec §4.1)
	}

	return limitAndDedupe(root, cfg, paths), nil
}

// excluded reports whether rel matches one of the configured glob
// patterns, tried both against the full relative path and its base name
// (so a pattern like "*.pyc" matches regardless of directory depth).
func excluded(rel string, globs []string) bool {
	relSlash := filepath.ToSlash(rel)
	base := filepath.Base(rel)
	for _, pattern := range globs {
		if ok, _ := filepath.Match(pattern, relSlash); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
