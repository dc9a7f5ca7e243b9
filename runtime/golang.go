package runtime

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/jrossi/lintorc/catalog"
)

// GoStrategy provisions tools via `go install`. System discovery prefers
// $HOME/go/bin before PATH -- the same order
// linters/golang/golang.go's findGolangciLint checks.
type GoStrategy struct{}

func (s *GoStrategy) TrySystem(ctx context.Context, def catalog.ToolDefinition, _ *CacheLayout) (*PreparedCommand, error) {
	exeName := binaryName(def)

	if home := os.Getenv("HOME"); home != "" {
		standard := filepath.Join(home, "go", "bin", exeName)
		if _, err := os.Stat(standard); err == nil {
			return versionGate(ctx, def, standard)
		}
	}

	path, err := exec.LookPath(exeName)
	if err != nil {
		return nil, nil
	}
	return versionGate(ctx, def, path)
}

func (s *GoStrategy) TryProject(_ context.Context, def catalog.ToolDefinition, root string, _ *CacheLayout) (*PreparedCommand, error) {
	candidate := filepath.Join(root, "bin", binaryName(def))
	if _, err := os.Stat(candidate); err != nil {
		return nil, nil
	}
	return &PreparedCommand{Argv: []string{candidate}, Source: SourceProject}, nil
}

func (s *GoStrategy) PrepareLocal(ctx context.Context, def catalog.ToolDefinition, cache *CacheLayout) (*PreparedCommand, error) {
	gobin := cache.GoBin()
	exeName := binaryName(def)
	binPath := filepath.Join(gobin, exeName)

	meta := goMetaPath(cache, def.Name)
	requirement := def.Package + "@" + versionOrLatest(def.MinVersion)

	if fresh, _ := readMetaRequirement(meta); fresh == requirement {
		if _, err := os.Stat(binPath); err == nil {
			return &PreparedCommand{Argv: []string{binPath}, Source: SourceLocal, Env: map[string]string{"GOBIN": gobin}}, nil
		}
	}

	cmd := exec.CommandContext(ctx, "go", "install", requirement)
	cmd.Env = append(os.Environ(), "GOBIN="+gobin)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("go install %s: %w (%s)", requirement, err, strings.TrimSpace(string(out)))
	}

	_ = writeMetaRequirement(meta, requirement)
	return &PreparedCommand{Argv: []string{binPath}, Source: SourceLocal, Env: map[string]string{"GOBIN": gobin}}, nil
}

// binaryName is the exe name this tool resolves to on disk: the last
// path segment of its package, or the tool name if no package is
// declared (covers binary-runtime tools hosted under "go" in tests).
func binaryName(def catalog.ToolDefinition) string {
	if def.Package == "" {
		return def.Name
	}
	segs := strings.Split(def.Package, "/")
	return segs[len(segs)-1]
}

func versionOrLatest(minVersion string) string {
	if minVersion == "" {
		return "latest"
	}
	return "v" + minVersion
}

// versionGate captures the system binary's version (if a version command
// is declared) and rejects it when incompatible, per spec §4.4's "system
// candidate" rule.
func versionGate(ctx context.Context, def catalog.ToolDefinition, path string) (*PreparedCommand, error) {
	if len(def.VersionCommand) == 0 {
		return &PreparedCommand{Argv: []string{path}, Source: SourceSystem}, nil
	}
	v := CaptureVersion(ctx, withResolvedExe(def.VersionCommand, path))
	if !VersionCompatible(v, def.MinVersion) {
		return nil, nil
	}
	return &PreparedCommand{Argv: []string{path}, Source: SourceSystem, Version: v}, nil
}

// withResolvedExe substitutes the resolved system path for the bare exe
// name at the head of a declared version command.
func withResolvedExe(versionCommand []string, resolvedPath string) []string {
	if len(versionCommand) == 0 {
		return versionCommand
	}
	out := make([]string, len(versionCommand))
	copy(out, versionCommand)
	out[0] = resolvedPath
	return out
}

type installMeta struct {
	Requirement string `json:"requirement"`
}

func goMetaPath(cache *CacheLayout, toolName string) string {
	return filepath.Join(cache.GoMeta(), slugify(toolName)+".json")
}

func readMetaRequirement(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var m installMeta
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", err
	}
	return m.Requirement, nil
}

func writeMetaRequirement(path, requirement string) error {
	raw, err := json.Marshal(installMeta{Requirement: requirement})
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// slugify derives a filesystem-safe, collision-resistant directory name
// from a requirement string (spec §4.4 invariant: "each tool gets a
// unique slug directory").
func slugify(s string) string {
	sum := sha256.Sum256([]byte(s))
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, s)
	if len(safe) > 40 {
		safe = safe[:40]
	}
	return safe + "-" + hex.EncodeToString(sum[:])[:8]
}
