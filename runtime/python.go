package runtime

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/jrossi/lintorc/catalog"
)

// PythonStrategy provisions tools through uv, grounded on
// linters/python/python.go's sync.Once `uv` availability check.
type PythonStrategy struct {
	once   sync.Once
	uvPath string
	hasUV  bool
}

func (s *PythonStrategy) initialize() {
	s.once.Do(func() {
		if path, err := exec.LookPath("uv"); err == nil {
			s.hasUV = true
			s.uvPath = path
		}
	})
}

func (s *PythonStrategy) TrySystem(ctx context.Context, def catalog.ToolDefinition, _ *CacheLayout) (*PreparedCommand, error) {
	path, err := exec.LookPath(def.Name)
	if err != nil {
		return nil, nil
	}
	return versionGate(ctx, def, path)
}

func (s *PythonStrategy) TryProject(_ context.Context, def catalog.ToolDefinition, root string, _ *CacheLayout) (*PreparedCommand, error) {
	candidate := filepath.Join(root, ".venv", "bin", def.Name)
	if _, err := os.Stat(candidate); err != nil {
		return nil, nil
	}
	return &PreparedCommand{Argv: []string{candidate}, Source: SourceProject}, nil
}

// PrepareLocal runs the tool through `uv --project <root> run --with
// <requirement>`, the same "uv tool run" idiom as linters/python/python.go
// -- but generalized from a single hardcoded invocation to any
// package/min-version pair from the catalog. The --project flag (and the
// matching UV_PROJECT variable) pin uv to the orchestrator's own project
// directory: the executor runs tools with cwd set to the target
// repository, and without the pin uv would resolve against that repo's
// pyproject.toml, or fail when it has none.
func (s *PythonStrategy) PrepareLocal(ctx context.Context, def catalog.ToolDefinition, cache *CacheLayout) (*PreparedCommand, error) {
	s.initialize()
	if !s.hasUV {
		return nil, fmt.Errorf("runtime: uv not found on PATH, cannot provision %s", def.Name)
	}

	pkg := def.Package
	if pkg == "" {
		pkg = def.Name
	}
	requirement := pkg
	if def.MinVersion != "" {
		requirement = pkg + "==" + def.MinVersion
	}

	uvCacheDir := cache.UvCacheDir()
	projectDir := cache.UvProjectDir()
	argv := []string{s.uvPath, "--project", projectDir, "run", "--with", requirement, def.Name}

	return &PreparedCommand{
		Argv:   argv,
		Source: SourceLocal,
		Env: map[string]string{
			"UV_CACHE_DIR": uvCacheDir,
			"UV_PROJECT":   projectDir,
		},
	}, nil
}
