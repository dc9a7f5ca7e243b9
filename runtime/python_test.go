package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrossi/lintorc/catalog"
)

func TestPythonStrategy_TryProjectFindsVenvBinary(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".venv", "bin")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	exe := filepath.Join(dir, "ruff")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	s := &PythonStrategy{}
	cmd, err := s.TryProject(context.Background(), catalog.ToolDefinition{Name: "ruff"}, root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmd == nil || cmd.Argv[0] != exe || cmd.Source != SourceProject {
		t.Fatalf("got %+v", cmd)
	}
}

func TestPythonStrategy_TryProjectAbsentYieldsNilNil(t *testing.T) {
	s := &PythonStrategy{}
	cmd, err := s.TryProject(context.Background(), catalog.ToolDefinition{Name: "ruff"}, t.TempDir(), nil)
	if err != nil || cmd != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", cmd, err)
	}
}

func TestPythonStrategy_PrepareLocalFailsClearlyWithoutUV(t *testing.T) {
	s := &PythonStrategy{}
	s.once.Do(func() {}) // pin initialize() as already-run with hasUV left false
	cache := NewCacheLayout(t.TempDir())
	_, err := s.PrepareLocal(context.Background(), catalog.ToolDefinition{Name: "ruff"}, cache)
	if err == nil {
		t.Fatalf("expected an error when uv is unavailable")
	}
}

// pinUV marks initialize() as already-run with a fake uv path, so argv
// assertions don't depend on the host having uv installed.
func pinUV(s *PythonStrategy, path string) {
	s.once.Do(func() {})
	s.hasUV = true
	s.uvPath = path
}

func TestPythonStrategy_PrepareLocalArgvAndEnv(t *testing.T) {
	s := &PythonStrategy{}
	pinUV(s, "/usr/bin/uv")
	cache := NewCacheLayout(t.TempDir())

	cmd, err := s.PrepareLocal(context.Background(), catalog.ToolDefinition{
		Name:       "ruff",
		Package:    "ruff",
		MinVersion: "0.4.0",
	}, cache)
	if err != nil {
		t.Fatal(err)
	}

	projectDir := cache.UvProjectDir()
	want := []string{"/usr/bin/uv", "--project", projectDir, "run", "--with", "ruff==0.4.0", "ruff"}
	if len(cmd.Argv) != len(want) {
		t.Fatalf("argv = %v, want %v", cmd.Argv, want)
	}
	for i := range want {
		if cmd.Argv[i] != want[i] {
			t.Fatalf("argv = %v, want %v", cmd.Argv, want)
		}
	}
	if cmd.Source != SourceLocal {
		t.Errorf("source = %q, want local", cmd.Source)
	}
	if cmd.Env["UV_CACHE_DIR"] != cache.UvCacheDir() {
		t.Errorf("UV_CACHE_DIR = %q, want %q", cmd.Env["UV_CACHE_DIR"], cache.UvCacheDir())
	}
	if cmd.Env["UV_PROJECT"] != projectDir {
		t.Errorf("UV_PROJECT = %q, want %q", cmd.Env["UV_PROJECT"], projectDir)
	}
}

func TestPythonStrategy_PrepareLocalHonorsUvProjectRoot(t *testing.T) {
	s := &PythonStrategy{}
	pinUV(s, "/usr/bin/uv")
	cache := NewCacheLayout(t.TempDir())
	cache.UvProjectRoot = "/opt/lintorc"

	cmd, err := s.PrepareLocal(context.Background(), catalog.ToolDefinition{Name: "ruff"}, cache)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Argv[1] != "--project" || cmd.Argv[2] != "/opt/lintorc" {
		t.Errorf("argv = %v, want --project /opt/lintorc", cmd.Argv)
	}
	if cmd.Env["UV_PROJECT"] != "/opt/lintorc" {
		t.Errorf("UV_PROJECT = %q, want /opt/lintorc", cmd.Env["UV_PROJECT"])
	}
}
