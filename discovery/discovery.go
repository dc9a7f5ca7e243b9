// Package discovery produces the ordered, deduplicated set of candidate
// files an orchestrator run considers, either from git state or a plain
// filesystem walk.
package discovery

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
)

// Mode selects which git comparison GitDiscovery performs.
type Mode string

const (
	ModePreCommit   Mode = "pre_commit"
	ModeBaseBranch  Mode = "base_branch"
	ModeDiffRef     Mode = "diff_ref"
	ModeWorkingTree Mode = "working_tree"
)

// Config is the subset of the resolved application config that affects
// discovery. IncludeUntracked and LimitTo apply to both strategies.
type Config struct {
	Mode             Mode
	BaseBranch       string
	DiffRef          string
	IncludeUntracked bool
	LimitTo          []string
	ExcludeGlobs     []string
	IncludeDotfiles  bool
}

// Discoverer produces the ordered set of candidate absolute file paths
// under root. Implementations never touch file contents and never return
// an error for expected failure modes (spec §4.1: "discovery is
// best-effort") -- an empty result communicates that.
type Discoverer interface {
	Discover(ctx context.Context, cfg Config, root string) ([]string, error)
}

// limitAndDedupe applies LimitTo prefix filtering, drops paths outside
// root, deduplicates, and sorts -- the tail shared by both strategies.
func limitAndDedupe(root string, cfg Config, paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))

	for _, p := range paths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, abs)
		}
		abs = filepath.Clean(abs)

		rel, err := filepath.Rel(root, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue // outside root
		}

		if len(cfg.LimitTo) > 0 && !underAnyPrefix(rel, cfg.LimitTo) {
			continue
		}

		if seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}

	sort.Strings(out)
	return out
}

// underAnyPrefix reports whether rel is contained by one of prefixes,
// interpreted as relative-path directory/file prefixes.
func underAnyPrefix(rel string, prefixes []string) bool {
	relSlash := filepath.ToSlash(rel)
	for _, prefix := range prefixes {
		prefix = filepath.ToSlash(strings.TrimSuffix(prefix, "/"))
		if prefix == "" {
			continue
		}
		if relSlash == prefix || strings.HasPrefix(relSlash, prefix+"/") {
			return true
		}
	}
	return false
}
