package runtime

import (
	"os"
	"path/filepath"
	"sync"
)

// CacheLayout is the deterministic directory tree under a base cache_dir
// that every local-provisioning strategy reads and writes (spec §4.2):
//
//	<cache>/tools/
//	  uv/                    Python tools via uv
//	  node/  npm/            Node installs + shared npm cache
//	  go/{bin,meta,work}/    per-module Go installs
//	  lua/{bin,meta,lua}/    luarocks trees
//	  rust/{bin,meta,work}/  cargo install targets
//	  perl/{bin,meta}/       cpanm local-lib
//	  project-installed.json marker indicating "prefer project binaries"
type CacheLayout struct {
	Base string

	// UvProjectRoot is the orchestrator's own uv project directory, handed
	// to `uv --project` so local Python provisioning resolves against the
	// engine's environment rather than whatever pyproject.toml the target
	// repository happens to carry. Empty means "use the scratch project
	// under the uv cache tree".
	UvProjectRoot string

	mu      sync.Mutex
	ensured map[string]bool // resolved absolute dir -> created this instance
}

// NewCacheLayout returns a CacheLayout rooted at base. Directories are
// created lazily, not here.
func NewCacheLayout(base string) *CacheLayout {
	return &CacheLayout{Base: base, ensured: make(map[string]bool)}
}

// ToolsRoot is <cache>/tools.
func (c *CacheLayout) ToolsRoot() string { return filepath.Join(c.Base, "tools") }

func (c *CacheLayout) uvDir() string { return filepath.Join(c.ToolsRoot(), "uv") }
func (c *CacheLayout) nodeDir() string { return filepath.Join(c.ToolsRoot(), "node") }
func (c *CacheLayout) npmCacheDir() string { return filepath.Join(c.ToolsRoot(), "npm") }
func (c *CacheLayout) goDir() string { return filepath.Join(c.ToolsRoot(), "go") }
func (c *CacheLayout) luaDir() string { return filepath.Join(c.ToolsRoot(), "lua") }
func (c *CacheLayout) rustDir() string { return filepath.Join(c.ToolsRoot(), "rust") }
func (c *CacheLayout) perlDir() string { return filepath.Join(c.ToolsRoot(), "perl") }

// UvCacheDir returns the directory uv's own cache should use.
func (c *CacheLayout) UvCacheDir() string { return c.ensureDir(c.uvDir()) }

// UvProjectDir returns the project directory `uv --project` resolves
// against: UvProjectRoot when the caller set one, else a scratch project
// under the uv cache tree.
func (c *CacheLayout) UvProjectDir() string {
	if c.UvProjectRoot != "" {
		return c.UvProjectRoot
	}
	return c.ensureDir(filepath.Join(c.uvDir(), "project"))
}

// NodeInstallDir returns the per-requirement install directory for slug,
// and NpmCacheDir the shared npm cache vars should point at.
func (c *CacheLayout) NodeInstallDir(slug string) string {
	return c.ensureDir(filepath.Join(c.nodeDir(), slug))
}
func (c *CacheLayout) NpmCacheDir() string { return c.ensureDir(c.npmCacheDir()) }

// GoBin, GoMeta, GoWork return the per-run GOBIN and the module's
// metadata/work subdirectories.
func (c *CacheLayout) GoBin() string  { return c.ensureDir(filepath.Join(c.goDir(), "bin")) }
func (c *CacheLayout) GoMeta() string { return c.ensureDir(filepath.Join(c.goDir(), "meta")) }
func (c *CacheLayout) GoWork() string { return c.ensureDir(filepath.Join(c.goDir(), "work")) }

// LuaBin, LuaMeta, LuaTree.
func (c *CacheLayout) LuaBin() string  { return c.ensureDir(filepath.Join(c.luaDir(), "bin")) }
func (c *CacheLayout) LuaMeta() string { return c.ensureDir(filepath.Join(c.luaDir(), "meta")) }
func (c *CacheLayout) LuaTree(slug string) string {
	return c.ensureDir(filepath.Join(c.luaDir(), "lua", slug))
}

// RustBin, RustMeta, RustWork.
func (c *CacheLayout) RustBin() string  { return c.ensureDir(filepath.Join(c.rustDir(), "bin")) }
func (c *CacheLayout) RustMeta() string { return c.ensureDir(filepath.Join(c.rustDir(), "meta")) }
func (c *CacheLayout) RustWork(slug string) string {
	return c.ensureDir(filepath.Join(c.rustDir(), "work", slug))
}

// PerlBin, PerlMeta.
func (c *CacheLayout) PerlBin() string  { return c.ensureDir(filepath.Join(c.perlDir(), "bin")) }
func (c *CacheLayout) PerlMeta() string { return c.ensureDir(filepath.Join(c.perlDir(), "meta")) }

// ensureDir creates dir (and parents) exactly once per CacheLayout
// instance, tracked by resolved path -- the teacher's
// "_ensure_dirs is idempotent and memoized" idiom from toolcache/cache.go's
// ensureInitialized, generalized from one cache file to many directories.
func (c *CacheLayout) ensureDir(dir string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ensured[dir] {
		return dir
	}
	_ = os.MkdirAll(dir, 0o755)
	c.ensured[dir] = true
	return dir
}

// projectMarkerPaths are the modern and legacy locations of the
// project-mode marker file, checked in that order.
func (c *CacheLayout) projectMarkerPaths() []string {
	return []string{
		filepath.Join(c.ToolsRoot(), "project-installed.json"),
		filepath.Join(c.Base, "project-installed.json"),
	}
}

// ProjectMode reports whether either project marker file is present.
func (c *CacheLayout) ProjectMode() bool {
	for _, p := range c.projectMarkerPaths() {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}
