package runtime

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jrossi/lintorc/catalog"
)

// BinaryStrategy covers tools with no package ecosystem: a standalone
// executable expected to already exist somewhere on PATH or in the
// project tree. Per spec §4.4, it has no local provisioning step -- the
// "local" candidate is just the system argv, surfaced as an error if
// absent.
type BinaryStrategy struct{}

func (s *BinaryStrategy) TrySystem(ctx context.Context, def catalog.ToolDefinition, _ *CacheLayout) (*PreparedCommand, error) {
	path, err := exec.LookPath(def.Name)
	if err != nil {
		return nil, nil
	}
	return versionGate(ctx, def, path)
}

func (s *BinaryStrategy) TryProject(_ context.Context, def catalog.ToolDefinition, root string, _ *CacheLayout) (*PreparedCommand, error) {
	candidate := filepath.Join(root, "bin", def.Name)
	if _, err := os.Stat(candidate); err != nil {
		return nil, nil
	}
	return &PreparedCommand{Argv: []string{candidate}, Source: SourceProject}, nil
}

func (s *BinaryStrategy) PrepareLocal(ctx context.Context, def catalog.ToolDefinition, _ *CacheLayout) (*PreparedCommand, error) {
	path, err := exec.LookPath(def.Name)
	if err != nil {
		return nil, fmt.Errorf("runtime: %s has no package ecosystem and is not on PATH", def.Name)
	}
	return &PreparedCommand{Argv: []string{path}, Source: SourceSystem}, nil
}
