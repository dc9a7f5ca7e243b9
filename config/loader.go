package config

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

// Loader locates and merges config files from the standard precedence
// chain, generalized from config_loader.go's ConfigLoader: user-global,
// then project, then project-local overrides.
type Loader struct {
	projectDir string
	homeDir    string
}

// NewLoader returns a Loader rooted at the process's home and working
// directories.
func NewLoader() (*Loader, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("config: resolving home directory: %w", err)
	}
	projectDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: resolving working directory: %w", err)
	}
	return &Loader{projectDir: projectDir, homeDir: homeDir}, nil
}

// NewLoaderAt returns a Loader rooted at an explicit project directory,
// for callers (tests, multi-root tools) that don't want the loader tied
// to the process's own working directory.
func NewLoaderAt(projectDir, homeDir string) *Loader {
	return &Loader{projectDir: projectDir, homeDir: homeDir}
}

// Paths returns the config file locations searched, lowest precedence
// first.
func (l *Loader) Paths() []string {
	return []string{
		filepath.Join(l.homeDir, ".lintorc", "config.json"),
		filepath.Join(l.projectDir, ".lintorc", "config.json"),
		filepath.Join(l.projectDir, ".lintorc", "config.local.json"),
	}
}

// Load reads and merges every config file in Paths() that exists,
// lowest precedence first. A missing file is skipped silently; a
// present-but-malformed file is an error.
func (l *Loader) Load() (*AppConfig, error) {
	return l.LoadPaths(l.Paths())
}

// LoadPaths loads and merges config from an explicit path list, in
// order.
func (l *Loader) LoadPaths(paths []string) (*AppConfig, error) {
	cfg := New()
	for _, path := range paths {
		if err := l.mergeFrom(cfg, path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (l *Loader) mergeFrom(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	var layer AppConfig
	if err := json.Unmarshal(data, &layer); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.Merge(&layer)
	return nil
}

// FindProjectRoot walks upward from the loader's project directory
// looking for a .git directory, falling back to the starting directory
// when none is found.
func (l *Loader) FindProjectRoot() string {
	dir := l.projectDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return l.projectDir
		}
		dir = parent
	}
}
