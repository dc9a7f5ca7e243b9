// Package resultcache is the content-addressed ToolOutcome cache: keyed
// by a fingerprint over tool, action, argv, env, input files, and the
// relevant config subset (spec §4.7), persisted as JSON the way
// toolcache/cache.go's CacheManager persists its tool-discovery cache,
// with an added per-key single-producer contract.
package resultcache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/jrossi/lintorc/diag"
	"github.com/jrossi/lintorc/logging"
)

// diskFormat is the on-disk envelope, mirroring UniversalToolCache's
// "versioned JSON blob written wholesale" shape.
type diskFormat struct {
	Version string                      `json:"version"`
	Entries map[string]diag.ToolOutcome `json:"entries"`
}

const cacheFormatVersion = "1"

// group coordinates concurrent requesters of the same fingerprint: the
// first caller computes via once.Do, every other concurrent caller for
// the same key blocks on the same Once and observes its result (spec
// §4.7: "at most one concurrent producer per key").
type group struct {
	once    sync.Once
	outcome diag.ToolOutcome
	err     error
}

// Cache is the result cache for one orchestrator run. It is safe for
// concurrent use.
type Cache struct {
	path    string
	enabled bool
	logger  logging.Logger

	mu      sync.RWMutex
	entries map[string]diag.ToolOutcome
	groups  map[string]*group
}

// New returns a Cache backed by path. When enabled is false, every call
// to GetOrCompute is a miss and nothing is read from or written to disk
// (spec §4.7: "the cache is optional ... when disabled every call is a
// miss").
func New(path string, enabled bool) *Cache {
	return NewWithLogger(path, enabled, logging.Nop())
}

// NewWithLogger is New with an explicit sink for cache read/write
// failures, which are logged and absorbed (a failed read is a miss, a
// failed write drops the entry) rather than surfaced as errors.
func NewWithLogger(path string, enabled bool, logger logging.Logger) *Cache {
	c := &Cache{
		path:    path,
		enabled: enabled,
		logger:  logger,
		entries: make(map[string]diag.ToolOutcome),
		groups:  make(map[string]*group),
	}
	if enabled {
		// a missing or corrupt cache file degrades to an empty cache
		if err := c.load(); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("result cache %s unreadable, starting empty: %v", c.path, err)
		}
	}
	return c
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}
	var disk diskFormat
	if err := json.Unmarshal(data, &disk); err != nil {
		return err
	}
	if disk.Version != cacheFormatVersion {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range disk.Entries {
		c.entries[k] = v
	}
	return nil
}

// save persists the full entry set, wholesale, the same as the teacher's
// save() -- called with c.mu already held for writing.
func (c *Cache) save() error {
	disk := diskFormat{Version: cacheFormatVersion, Entries: c.entries}
	data, err := json.MarshalIndent(disk, "", "  ")
	if err != nil {
		return fmt.Errorf("resultcache: marshaling cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("resultcache: creating cache directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("resultcache: writing cache file: %w", err)
	}
	return nil
}

// Get returns the cached outcome for key, if present, with Cached set.
func (c *Cache) Get(key string) (diag.ToolOutcome, bool) {
	if !c.enabled {
		return diag.ToolOutcome{}, false
	}
	c.mu.RLock()
	outcome, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return diag.ToolOutcome{}, false
	}
	outcome.Cached = true
	return outcome, true
}

// Put stores outcome under key. The stored copy always has Cached=false
// -- "the value is the complete ToolOutcome minus the cached flag"
// (spec §4.7); Get re-adds the flag on retrieval.
func (c *Cache) Put(key string, outcome diag.ToolOutcome) error {
	if !c.enabled {
		return nil
	}
	outcome.Cached = false
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = outcome
	return c.save()
}

// GetOrCompute returns the cached outcome for key if present; otherwise
// it runs compute, with at most one concurrent producer per key across
// every caller that races in during the same miss.
func (c *Cache) GetOrCompute(key string, compute func() (diag.ToolOutcome, error)) (diag.ToolOutcome, error) {
	if !c.enabled {
		return compute()
	}

	if outcome, ok := c.Get(key); ok {
		return outcome, nil
	}

	c.mu.Lock()
	g, inflight := c.groups[key]
	if !inflight {
		g = &group{}
		c.groups[key] = g
	}
	c.mu.Unlock()

	g.once.Do(func() {
		g.outcome, g.err = compute()
		if g.err == nil {
			if err := c.Put(key, g.outcome); err != nil {
				c.logger.Warn("result cache write dropped: %v", err)
			}
		}
		c.mu.Lock()
		delete(c.groups, key)
		c.mu.Unlock()
	})

	return g.outcome, g.err
}
