package runtime

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheLayout_DirectoriesCreatedLazily(t *testing.T) {
	base := t.TempDir()
	c := NewCacheLayout(base)

	if _, err := os.Stat(c.ToolsRoot()); err == nil {
		t.Fatalf("tools root should not exist before any accessor is called")
	}

	uv := c.UvCacheDir()
	if _, err := os.Stat(uv); err != nil {
		t.Fatalf("UvCacheDir() = %s, expected directory to exist: %v", uv, err)
	}
	if filepath.Dir(filepath.Dir(uv)) != base {
		t.Fatalf("uv dir %s not rooted under base %s", uv, base)
	}
}

func TestCacheLayout_EnsureDirMemoizes(t *testing.T) {
	base := t.TempDir()
	c := NewCacheLayout(base)

	dir := c.GoBin()
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	// second call must not attempt to recreate it since it is memoized;
	// the returned path is still correct even though the directory is gone.
	again := c.GoBin()
	if again != dir {
		t.Fatalf("GoBin() changed across calls: %s vs %s", dir, again)
	}
	if _, err := os.Stat(again); err == nil {
		t.Fatalf("expected memoized ensureDir to skip recreating removed directory")
	}
}

func TestCacheLayout_PerEcosystemLayout(t *testing.T) {
	base := t.TempDir()
	c := NewCacheLayout(base)

	cases := map[string]string{
		"go bin":    c.GoBin(),
		"go meta":   c.GoMeta(),
		"go work":   c.GoWork(),
		"lua bin":   c.LuaBin(),
		"rust bin":  c.RustBin(),
		"perl bin":  c.PerlBin(),
		"npm cache": c.NpmCacheDir(),
	}
	for label, dir := range cases {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("%s: %s does not exist: %v", label, dir, err)
		}
	}
}

func TestCacheLayout_ProjectMode(t *testing.T) {
	base := t.TempDir()
	c := NewCacheLayout(base)

	if c.ProjectMode() {
		t.Fatalf("expected ProjectMode() false with no marker present")
	}

	toolsRoot := c.ToolsRoot()
	if err := os.MkdirAll(toolsRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(toolsRoot, "project-installed.json")
	if err := os.WriteFile(marker, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !c.ProjectMode() {
		t.Fatalf("expected ProjectMode() true once modern marker exists")
	}
}

func TestCacheLayout_LegacyProjectMarker(t *testing.T) {
	base := t.TempDir()
	c := NewCacheLayout(base)

	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatal(err)
	}
	legacy := filepath.Join(base, "project-installed.json")
	if err := os.WriteFile(legacy, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !c.ProjectMode() {
		t.Fatalf("expected ProjectMode() true via legacy marker fallback")
	}
}
