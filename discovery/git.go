package discovery

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// GitDiscovery discovers files via git state: staged diff (pre-commit),
// diff against a base branch's merge-base, or diff against an explicit
// ref, optionally unioned with untracked files.
//
// Every git invocation follows the teacher's subprocess idiom:
// exec.CommandContext, a working directory pin, and buffered stdout/stderr
// capture -- but a git failure here yields an empty result rather than a
// wrapped error (spec §4.1: discovery is best-effort, never fatal).
type GitDiscovery struct {
	// Run executes git with the given args rooted at dir and returns its
	// stdout. Overridable in tests; defaults to a real exec.CommandContext
	// invocation.
	Run func(ctx context.Context, dir string, args ...string) (string, error)
}

// NewGitDiscovery returns a GitDiscovery that shells out to the real git
// binary.
func NewGitDiscovery() *GitDiscovery {
	return &GitDiscovery{Run: runGit}
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w (stderr: %s)", strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), nil
}

// Discover implements Discoverer.
func (g *GitDiscovery) Discover(ctx context.Context, cfg Config, root string) ([]string, error) {
	run := g.Run
	if run == nil {
		run = runGit
	}

	var names []string

	switch cfg.Mode {
	case ModePreCommit:
		names = g.diffNames(ctx, run, root, "diff", "--name-only", "--cached")
	case ModeBaseBranch:
		base := cfg.BaseBranch
		if base == "" {
			base = "main"
		}
		mergeBase, err := run(ctx, root, "merge-base", "HEAD", base)
		ref := base
		if err == nil {
			if trimmed := strings.TrimSpace(mergeBase); trimmed != "" {
				ref = trimmed
			}
		}
		names = g.diffNames(ctx, run, root, "diff", "--name-only", ref)
	case ModeDiffRef:
		if cfg.DiffRef == "" {
			return nil, nil
		}
		names = g.diffNames(ctx, run, root, "diff", "--name-only", cfg.DiffRef)
	default:
		names = g.diffNames(ctx, run, root, "diff", "--name-only", "HEAD")
	}

	if cfg.IncludeUntracked {
		untracked := g.diffNames(ctx, run, root, "ls-files", "--others", "--exclude-standard")
		names = append(names, untracked...)
	}

	return limitAndDedupe(root, cfg, names), nil
}

// diffNames runs a git subcommand and splits its stdout into non-empty
// lines. Any failure (git missing, not a repo, bad ref) yields an empty
// slice rather than propagating.
func (g *GitDiscovery) diffNames(ctx context.Context, run func(context.Context, string, ...string) (string, error), root string, args ...string) []string {
	out, err := run(ctx, root, args...)
	if err != nil {
		return nil
	}

	var names []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			names = append(names, line)
		}
	}
	return names
}
