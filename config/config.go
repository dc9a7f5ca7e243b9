// Package config holds the orchestrator's structured configuration:
// nested sections for discovery, output, execution, severity, and the
// per-tool settings/overrides every other package treats as read-only
// input, generalized from config.go's AppConfig.
package config

import (
	"time"

	json "github.com/goccy/go-json"
)

// Duration wraps time.Duration for human-readable ("30s", "2m") JSON
// config values, the same wrapper config.go's Duration provides.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

// FileDiscoveryConfig mirrors discovery.Config's fields as config input.
type FileDiscoveryConfig struct {
	Mode             string   `json:"mode,omitempty"`
	BaseBranch       string   `json:"base_branch,omitempty"`
	DiffRef          string   `json:"diff_ref,omitempty"`
	IncludeUntracked *bool    `json:"include_untracked,omitempty"`
	LimitTo          []string `json:"limit_to,omitempty"`
	ExcludeGlobs     []string `json:"exclude_globs,omitempty"`
	IncludeDotfiles  *bool    `json:"include_dotfiles,omitempty"`
}

// OutputConfig controls reporter behavior (format, color, quiet).
type OutputConfig struct {
	Format string `json:"format,omitempty"` // "text" | "json" | "sarif"
	Color  *bool  `json:"color,omitempty"`
	Quiet  *bool  `json:"quiet,omitempty"`
}

// ExecutionConfig controls the orchestrator's concurrency, caching, and
// bail/provisioning policy (spec §4.4, §4.8).
type ExecutionConfig struct {
	Jobs              *int      `json:"jobs,omitempty"`
	Bail              *bool     `json:"bail,omitempty"`
	CacheEnabled      *bool     `json:"cache_enabled,omitempty"`
	Timeout           *Duration `json:"timeout,omitempty"`
	UseLocalOverride  *bool     `json:"use_local_override,omitempty"`
	ProjectMode       *bool     `json:"project_mode,omitempty"`
	SystemPreferred   *bool     `json:"system_preferred,omitempty"`
	StrictFingerprint *bool     `json:"strict_fingerprint,omitempty"`
}

// SeverityConfig carries a minimum reporting severity. No package in this
// repository reads it; normalized and cached outcomes keep every severity.
type SeverityConfig struct {
	MinSeverity string `json:"min_severity,omitempty"`
}

// StrictnessConfig carries a strictness level. No package in this
// repository reads it; the selector's sensitivity gate takes its level
// from selector.SelectionContext.Sensitivity instead.
type StrictnessConfig struct {
	Level string `json:"level,omitempty"` // "low" | "medium" | "high"
}

// ComplexityConfig carries structural-complexity thresholds. No tool in
// the built-in catalog reads them.
type ComplexityConfig struct {
	MaxCyclomatic *int `json:"max_cyclomatic,omitempty"`
	MaxFileLines  *int `json:"max_file_lines,omitempty"`
}

// QualityConfig carries test/documentation coverage thresholds. No tool in
// the built-in catalog reads them.
type QualityConfig struct {
	MinCoveragePercent *float64 `json:"min_coverage_percent,omitempty"`
	RequireTests       *bool    `json:"require_tests,omitempty"`
}

// ToolSettingsEntry is one tool's free-form CLI args, environment
// overrides, and config-supplied suppression patterns -- the config-side
// mirror of catalog.ToolSettings, plus the filter patterns spec §4.6
// layers on top of a tool's own catalog.ToolAction.FilterPatterns.
type ToolSettingsEntry struct {
	Args           []string          `json:"args,omitempty"`
	Env            map[string]string `json:"env,omitempty"`
	FilterPatterns []string          `json:"filter_patterns,omitempty"`
}

// AppConfig is the complete, structured configuration the orchestrator
// treats as read-only input (spec §6).
type AppConfig struct {
	FileDiscovery *FileDiscoveryConfig `json:"file_discovery,omitempty"`
	Output        *OutputConfig        `json:"output,omitempty"`
	Execution     *ExecutionConfig     `json:"execution,omitempty"`
	Severity      *SeverityConfig      `json:"severity,omitempty"`
	Strictness    *StrictnessConfig    `json:"strictness,omitempty"`
	Complexity    *ComplexityConfig    `json:"complexity,omitempty"`
	Quality       *QualityConfig       `json:"quality,omitempty"`

	ToolSettings map[string]ToolSettingsEntry `json:"tool_settings,omitempty"`

	// SeverityRules is a list of "tool:regex=level" strings (spec §4.6),
	// parsed via diag.ParseCustomRule by the orchestrator at startup.
	SeverityRules []string `json:"severity_rules,omitempty"`
}

// New returns an empty AppConfig with its map fields initialized.
func New() *AppConfig {
	return &AppConfig{ToolSettings: make(map[string]ToolSettingsEntry)}
}

// Merge layers other on top of c, with other's values taking precedence
// wherever it sets them -- the same pointer-presence-means-override
// shape as config.go's AppConfig.Merge. The execution section is merged
// field by field; any other section other sets replaces c's section
// whole.
func (c *AppConfig) Merge(other *AppConfig) {
	if other == nil {
		return
	}

	if other.FileDiscovery != nil {
		c.FileDiscovery = other.FileDiscovery
	}
	if other.Output != nil {
		c.Output = other.Output
	}
	if other.Execution != nil {
		var merged ExecutionConfig
		for _, layer := range []*ExecutionConfig{c.Execution, other.Execution} {
			if data, err := json.Marshal(layer); err == nil {
				_ = json.Unmarshal(data, &merged)
			}
		}
		c.Execution = &merged
	}
	if other.Severity != nil {
		c.Severity = other.Severity
	}
	if other.Strictness != nil {
		c.Strictness = other.Strictness
	}
	if other.Complexity != nil {
		c.Complexity = other.Complexity
	}
	if other.Quality != nil {
		c.Quality = other.Quality
	}

	if c.ToolSettings == nil {
		c.ToolSettings = make(map[string]ToolSettingsEntry)
	}
	for name, entry := range other.ToolSettings {
		c.ToolSettings[name] = entry
	}

	c.SeverityRules = append(c.SeverityRules, other.SeverityRules...)
}

// ToolSettingsFor returns the resolved settings for name, or the zero
// value if none are configured.
func (c *AppConfig) ToolSettingsFor(name string) ToolSettingsEntry {
	if c.ToolSettings == nil {
		return ToolSettingsEntry{}
	}
	return c.ToolSettings[name]
}

// Jobs returns the configured job count, or def if unset.
func (c *AppConfig) Jobs(def int) int {
	if c.Execution == nil || c.Execution.Jobs == nil {
		return def
	}
	return *c.Execution.Jobs
}

// Bail reports whether bail-on-first-failure is enabled.
func (c *AppConfig) Bail() bool {
	return c.Execution != nil && c.Execution.Bail != nil && *c.Execution.Bail
}

// CacheEnabled reports whether the result cache is enabled.
func (c *AppConfig) CacheEnabled() bool {
	return c.Execution != nil && c.Execution.CacheEnabled != nil && *c.Execution.CacheEnabled
}

// UseLocalOverride reports whether every tool should be force-provisioned
// locally, bypassing the system/project tiers (spec §4.4).
func (c *AppConfig) UseLocalOverride() bool {
	return c.Execution != nil && c.Execution.UseLocalOverride != nil && *c.Execution.UseLocalOverride
}

// ProjectMode reports whether the project tier should be tried before the
// system tier.
func (c *AppConfig) ProjectMode() bool {
	return c.Execution != nil && c.Execution.ProjectMode != nil && *c.Execution.ProjectMode
}

// SystemPreferred reports whether the system tier should be tried ahead of
// local provisioning.
func (c *AppConfig) SystemPreferred() bool {
	return c.Execution != nil && c.Execution.SystemPreferred != nil && *c.Execution.SystemPreferred
}

// StrictFingerprint reports whether cache fingerprints should hash file
// contents instead of relying on size/mtime.
func (c *AppConfig) StrictFingerprint() bool {
	return c.Execution != nil && c.Execution.StrictFingerprint != nil && *c.Execution.StrictFingerprint
}

// Timeout returns the configured per-action timeout, or 0 (unbounded) if
// unset.
func (c *AppConfig) Timeout() time.Duration {
	if c.Execution == nil || c.Execution.Timeout == nil {
		return 0
	}
	return c.Execution.Timeout.Duration
}
