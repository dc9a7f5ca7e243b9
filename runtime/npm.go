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

// NPMStrategy provisions Node-ecosystem tools. Project candidates live
// under node_modules/.bin; local candidates get a dedicated per-tool
// install directory under the cache so two tools' dependency trees never
// collide.
type NPMStrategy struct{}

func (s *NPMStrategy) TrySystem(ctx context.Context, def catalog.ToolDefinition, _ *CacheLayout) (*PreparedCommand, error) {
	path, err := exec.LookPath(def.Name)
	if err != nil {
		return nil, nil
	}
	return versionGate(ctx, def, path)
}

func (s *NPMStrategy) TryProject(_ context.Context, def catalog.ToolDefinition, root string, _ *CacheLayout) (*PreparedCommand, error) {
	candidate := filepath.Join(root, "node_modules", ".bin", def.Name)
	if _, err := os.Stat(candidate); err != nil {
		return nil, nil
	}
	return &PreparedCommand{Argv: []string{candidate}, Source: SourceProject}, nil
}

func (s *NPMStrategy) PrepareLocal(ctx context.Context, def catalog.ToolDefinition, cache *CacheLayout) (*PreparedCommand, error) {
	pkg := def.Package
	if pkg == "" {
		pkg = def.Name
	}
	slug := slugify(pkg)
	installDir := cache.NodeInstallDir(slug)
	npmCache := cache.NpmCacheDir()

	binPath := filepath.Join(installDir, "node_modules", ".bin", def.Name)
	marker := filepath.Join(installDir, ".pyqa-meta.json")

	requirement := pkg
	if def.MinVersion != "" {
		requirement = pkg + "@" + def.MinVersion
	} else {
		requirement = pkg + "@latest"
	}

	if fresh, _ := readMetaRequirement(marker); fresh == requirement {
		if _, err := os.Stat(binPath); err == nil {
			return &PreparedCommand{Argv: []string{binPath}, Source: SourceLocal}, nil
		}
	}

	cmd := exec.CommandContext(ctx, "npm", "install", "--prefix", installDir, "--cache", npmCache, requirement)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("npm install %s: %w (%s)", requirement, err, strings.TrimSpace(string(out)))
	}

	_ = writeMetaRequirement(marker, requirement)
	return &PreparedCommand{Argv: []string{binPath}, Source: SourceLocal}, nil
}
