package runtime

import (
	"context"
	"os"
	"path/filepath"
	goruntime "runtime"
	"testing"

	"github.com/jrossi/lintorc/catalog"
)

func TestGoStrategy_TryProjectFindsBinary(t *testing.T) {
	root := t.TempDir()
	binDir := filepath.Join(root, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	exe := filepath.Join(binDir, "mytool")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	s := &GoStrategy{}
	cmd, err := s.TryProject(context.Background(), catalog.ToolDefinition{Name: "mytool"}, root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmd == nil || cmd.Argv[0] != exe || cmd.Source != SourceProject {
		t.Fatalf("got %+v", cmd)
	}
}

func TestGoStrategy_TryProjectAbsentYieldsNilNil(t *testing.T) {
	s := &GoStrategy{}
	cmd, err := s.TryProject(context.Background(), catalog.ToolDefinition{Name: "mytool"}, t.TempDir(), nil)
	if err != nil || cmd != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", cmd, err)
	}
}

func TestGoStrategy_PrepareLocalReusesCachedInstall(t *testing.T) {
	if goruntime.GOOS == "windows" {
		t.Skip("posix-only fixture")
	}
	cache := NewCacheLayout(t.TempDir())
	def := catalog.ToolDefinition{Name: "golangci-lint", Package: "github.com/golangci/golangci-lint/cmd/golangci-lint", MinVersion: "1.62.0"}

	gobin := cache.GoBin()
	exePath := filepath.Join(gobin, "golangci-lint")
	if err := os.WriteFile(exePath, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	meta := goMetaPath(cache, def.Name)
	requirement := def.Package + "@v" + def.MinVersion
	if err := writeMetaRequirement(meta, requirement); err != nil {
		t.Fatal(err)
	}

	s := &GoStrategy{}
	cmd, err := s.PrepareLocal(context.Background(), def, cache)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Argv[0] != exePath || cmd.Source != SourceLocal {
		t.Fatalf("got %+v", cmd)
	}
}

func TestBinaryName_DerivesFromLastPackageSegment(t *testing.T) {
	def := catalog.ToolDefinition{Name: "tool", Package: "github.com/example/cmd/realbin"}
	if got := binaryName(def); got != "realbin" {
		t.Fatalf("got %q, want realbin", got)
	}
}

func TestBinaryName_FallsBackToToolName(t *testing.T) {
	def := catalog.ToolDefinition{Name: "tool"}
	if got := binaryName(def); got != "tool" {
		t.Fatalf("got %q, want tool", got)
	}
}

func TestVersionOrLatest(t *testing.T) {
	if got := versionOrLatest(""); got != "latest" {
		t.Fatalf("got %q, want latest", got)
	}
	if got := versionOrLatest("1.2.3"); got != "v1.2.3" {
		t.Fatalf("got %q, want v1.2.3", got)
	}
}

func TestSlugify_Deterministic(t *testing.T) {
	a := slugify("github.com/golangci/golangci-lint")
	b := slugify("github.com/golangci/golangci-lint")
	if a != b {
		t.Fatalf("slugify not deterministic: %q vs %q", a, b)
	}
	if slugify("a") == slugify("b") {
		t.Fatalf("slugify collided for distinct inputs")
	}
}
