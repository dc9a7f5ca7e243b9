package runtime

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jrossi/lintorc/catalog"
)

// RustStrategy provisions crates.io binaries via `cargo install`, or
// rustup components (a "rustup:<component>" package prefix) via `rustup
// component add`, per spec §4.4.
type RustStrategy struct{}

func (s *RustStrategy) TrySystem(ctx context.Context, def catalog.ToolDefinition, _ *CacheLayout) (*PreparedCommand, error) {
	path, err := exec.LookPath(def.Name)
	if err != nil {
		return nil, nil
	}
	return versionGate(ctx, def, path)
}

func (s *RustStrategy) TryProject(_ context.Context, def catalog.ToolDefinition, root string, _ *CacheLayout) (*PreparedCommand, error) {
	candidate := filepath.Join(root, "target", "release", def.Name)
	if _, err := os.Stat(candidate); err != nil {
		return nil, nil
	}
	return &PreparedCommand{Argv: []string{candidate}, Source: SourceProject}, nil
}

func (s *RustStrategy) PrepareLocal(ctx context.Context, def catalog.ToolDefinition, cache *CacheLayout) (*PreparedCommand, error) {
	if component, ok := strings.CutPrefix(def.Package, "rustup:"); ok {
		return s.prepareRustupComponent(ctx, def, component)
	}

	crate := def.Package
	if crate == "" {
		crate = def.Name
	}
	slug := slugify(crate)
	root := cache.RustWork(slug)
	bin := cache.RustBin()
	exePath := filepath.Join(bin, def.Name)

	requirement := crate
	if def.MinVersion != "" {
		requirement = crate + "@" + def.MinVersion
	}
	marker := filepath.Join(cache.RustMeta(), slug+".json")

	if fresh, _ := readMetaRequirement(marker); fresh == requirement {
		if _, err := os.Stat(exePath); err == nil {
			return &PreparedCommand{Argv: []string{exePath}, Source: SourceLocal}, nil
		}
	}

	args := []string{"install", crate, "--root", root, "--locked"}
	if def.MinVersion != "" {
		args = append(args, "--version", def.MinVersion)
	}
	cmd := exec.CommandContext(ctx, "cargo", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("cargo install %s: %w (%s)", crate, err, strings.TrimSpace(string(out)))
	}

	installed := filepath.Join(root, "bin", def.Name)
	if _, err := os.Stat(installed); err != nil {
		return nil, fmt.Errorf("cargo install %s: binary not found at %s", crate, installed)
	}
	_ = copyExecutable(installed, exePath)
	_ = writeMetaRequirement(marker, requirement)

	return &PreparedCommand{Argv: []string{exePath}, Source: SourceLocal}, nil
}

// prepareRustupComponent installs a toolchain component (e.g. "clippy")
// and exposes cargo itself as the command, since components like clippy
// run as `cargo clippy`.
func (s *RustStrategy) prepareRustupComponent(ctx context.Context, def catalog.ToolDefinition, component string) (*PreparedCommand, error) {
	cmd := exec.CommandContext(ctx, "rustup", "component", "add", component)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("rustup component add %s: %w (%s)", component, err, strings.TrimSpace(string(out)))
	}
	path, err := exec.LookPath("cargo")
	if err != nil {
		return nil, fmt.Errorf("rustup component add %s: cargo not found on PATH: %w", component, err)
	}
	return &PreparedCommand{Argv: []string{path}, Source: SourceLocal}, nil
}

func copyExecutable(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o755)
}
