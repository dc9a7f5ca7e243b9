package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// rulesFile is the on-disk shape of a severity-rule / filter-pattern
// override file: the two normalizer inputs spec §4.6 lets users layer on
// top of the catalog without touching the main JSON config.
type rulesFile struct {
	// SeverityRules are "tool:regex=level" strings, the same format
	// AppConfig.SeverityRules carries; they are validated when the
	// normalizer is built, not at load time.
	SeverityRules []string `yaml:"severity_rules"`
	// FilterPatterns maps a tool name (or "*") to regex suppressions.
	FilterPatterns map[string][]string `yaml:"filter_patterns"`
}

// MergeRulesFile reads a YAML override file and folds its severity rules
// and filter patterns into cfg. A missing file is skipped silently, the
// same as the JSON config precedence chain; a present-but-malformed file
// is an error.
func MergeRulesFile(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	var rules rulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.SeverityRules = append(cfg.SeverityRules, rules.SeverityRules...)

	if len(rules.FilterPatterns) > 0 && cfg.ToolSettings == nil {
		cfg.ToolSettings = make(map[string]ToolSettingsEntry)
	}
	for tool, patterns := range rules.FilterPatterns {
		entry := cfg.ToolSettings[tool]
		entry.FilterPatterns = append(entry.FilterPatterns, patterns...)
		cfg.ToolSettings[tool] = entry
	}
	return nil
}
