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

// PerlStrategy provisions tools via cpanm into a contained local-lib,
// copying the resulting script into a shared bin/ directory.
type PerlStrategy struct{}

func (s *PerlStrategy) TrySystem(ctx context.Context, def catalog.ToolDefinition, _ *CacheLayout) (*PreparedCommand, error) {
	path, err := exec.LookPath(def.Name)
	if err != nil {
		return nil, nil
	}
	return versionGate(ctx, def, path)
}

func (s *PerlStrategy) TryProject(_ context.Context, def catalog.ToolDefinition, root string, _ *CacheLayout) (*PreparedCommand, error) {
	candidate := filepath.Join(root, "local", "bin", def.Name)
	if _, err := os.Stat(candidate); err != nil {
		return nil, nil
	}
	return &PreparedCommand{Argv: []string{candidate}, Source: SourceProject}, nil
}

func (s *PerlStrategy) PrepareLocal(ctx context.Context, def catalog.ToolDefinition, cache *CacheLayout) (*PreparedCommand, error) {
	pkg := def.Package
	if pkg == "" {
		pkg = def.Name
	}
	slug := slugify(pkg)
	prefix := filepath.Join(filepath.Dir(cache.PerlBin()), "local-lib", slug)
	bin := cache.PerlBin()
	exePath := filepath.Join(bin, def.Name)
	marker := filepath.Join(cache.PerlMeta(), slug+".json")

	requirement := pkg
	if def.MinVersion != "" {
		requirement = pkg + "@" + def.MinVersion
	}

	if fresh, _ := readMetaRequirement(marker); fresh == requirement {
		if _, err := os.Stat(exePath); err == nil {
			return &PreparedCommand{Argv: []string{exePath}, Source: SourceLocal}, nil
		}
	}

	cmd := exec.CommandContext(ctx, "cpanm", "--notest", "--reinstall", "--local-lib-contained", prefix, requirement)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("cpanm %s: %w (%s)", requirement, err, strings.TrimSpace(string(out)))
	}

	installed := filepath.Join(prefix, "bin", def.Name)
	if _, err := os.Stat(installed); err != nil {
		return nil, fmt.Errorf("cpanm %s: binary not found at %s", requirement, installed)
	}
	_ = copyExecutable(installed, exePath)
	_ = writeMetaRequirement(marker, requirement)

	return &PreparedCommand{Argv: []string{exePath}, Source: SourceLocal}, nil
}
