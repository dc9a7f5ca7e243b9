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

// LuaStrategy provisions tools via luarocks, installing each into its own
// tree and copying the resulting binary into a shared bin/ directory so
// callers never need to know the per-tool tree path.
type LuaStrategy struct{}

func (s *LuaStrategy) TrySystem(ctx context.Context, def catalog.ToolDefinition, _ *CacheLayout) (*PreparedCommand, error) {
	path, err := exec.LookPath(def.Name)
	if err != nil {
		return nil, nil
	}
	return versionGate(ctx, def, path)
}

func (s *LuaStrategy) TryProject(_ context.Context, def catalog.ToolDefinition, root string, _ *CacheLayout) (*PreparedCommand, error) {
	candidate := filepath.Join(root, "lua_modules", "bin", def.Name)
	if _, err := os.Stat(candidate); err != nil {
		return nil, nil
	}
	return &PreparedCommand{Argv: []string{candidate}, Source: SourceProject}, nil
}

func (s *LuaStrategy) PrepareLocal(ctx context.Context, def catalog.ToolDefinition, cache *CacheLayout) (*PreparedCommand, error) {
	pkg := def.Package
	if pkg == "" {
		pkg = def.Name
	}
	slug := slugify(pkg)
	tree := cache.LuaTree(slug)
	bin := cache.LuaBin()
	exePath := filepath.Join(bin, def.Name)
	marker := filepath.Join(cache.LuaMeta(), slug+".json")

	requirement := pkg
	if def.MinVersion != "" {
		requirement = pkg + " " + def.MinVersion
	}

	if fresh, _ := readMetaRequirement(marker); fresh == requirement {
		if _, err := os.Stat(exePath); err == nil {
			return &PreparedCommand{Argv: []string{exePath}, Source: SourceLocal}, nil
		}
	}

	args := []string{"--tree", tree, "install", pkg}
	if def.MinVersion != "" {
		args = append(args, def.MinVersion)
	}
	cmd := exec.CommandContext(ctx, "luarocks", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("luarocks install %s: %w (%s)", pkg, err, strings.TrimSpace(string(out)))
	}

	installed := filepath.Join(tree, "bin", def.Name)
	if _, err := os.Stat(installed); err != nil {
		return nil, fmt.Errorf("luarocks install %s: binary not found at %s", pkg, installed)
	}
	_ = copyExecutable(installed, exePath)
	_ = writeMetaRequirement(marker, requirement)

	return &PreparedCommand{Argv: []string{exePath}, Source: SourceLocal}, nil
}
