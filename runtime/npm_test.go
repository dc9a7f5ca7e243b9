package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrossi/lintorc/catalog"
)

func TestNPMStrategy_TryProjectFindsLocalBin(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "node_modules", ".bin")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	exe := filepath.Join(dir, "eslint")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	s := &NPMStrategy{}
	cmd, err := s.TryProject(context.Background(), catalog.ToolDefinition{Name: "eslint"}, root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmd == nil || cmd.Argv[0] != exe || cmd.Source != SourceProject {
		t.Fatalf("got %+v", cmd)
	}
}

func TestNPMStrategy_PrepareLocalReusesCachedInstall(t *testing.T) {
	cache := NewCacheLayout(t.TempDir())
	def := catalog.ToolDefinition{Name: "eslint", Package: "eslint", MinVersion: "9.0.0"}

	slug := slugify("eslint")
	installDir := cache.NodeInstallDir(slug)
	binDir := filepath.Join(installDir, "node_modules", ".bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	exePath := filepath.Join(binDir, "eslint")
	if err := os.WriteFile(exePath, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(installDir, ".pyqa-meta.json")
	if err := writeMetaRequirement(marker, "eslint@9.0.0"); err != nil {
		t.Fatal(err)
	}

	s := &NPMStrategy{}
	cmd, err := s.PrepareLocal(context.Background(), def, cache)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Argv[0] != exePath || cmd.Source != SourceLocal {
		t.Fatalf("got %+v", cmd)
	}
}
