package orchestrator

import (
	"fmt"
	"regexp"

	"github.com/jrossi/lintorc/catalog"
	"github.com/jrossi/lintorc/config"
	"github.com/jrossi/lintorc/diag"
)

// BuildNormalizer assembles a diag.Normalizer for one run: the built-in
// severity rules, cfg.SeverityRules parsed via diag.ParseCustomRule layered
// on top, and every tool's catalog.ToolAction.FilterPatterns merged with
// whatever filter patterns cfg.ToolSettings supplies for that tool (spec
// §4.6 step 2: "per-tool regex list from config"). reg and cfg may be
// nil, in which case the built-in rules alone are returned.
func BuildNormalizer(repoRoot string, reg *catalog.Registry, cfg *config.AppConfig) (*diag.Normalizer, error) {
	n := diag.NewNormalizer(repoRoot)
	if reg != nil {
		for _, def := range reg.All() {
			for _, act := range def.Actions {
				if len(act.FilterPatterns) == 0 {
					continue
				}
				compiled, err := compilePatterns(act.FilterPatterns)
				if err != nil {
					return nil, fmt.Errorf("tool %q action %q: %w", def.Name, act.Name, err)
				}
				n.FilterPatterns[def.Name] = append(n.FilterPatterns[def.Name], compiled...)
			}
		}
	}
	if cfg == nil {
		return n, nil
	}
	for name, entry := range cfg.ToolSettings {
		if len(entry.FilterPatterns) == 0 {
			continue
		}
		compiled, err := compilePatterns(entry.FilterPatterns)
		if err != nil {
			return nil, fmt.Errorf("tool_settings[%q].filter_patterns: %w", name, err)
		}
		n.FilterPatterns[name] = append(n.FilterPatterns[name], compiled...)
	}
	for _, spec := range cfg.SeverityRules {
		tool, rule, err := diag.ParseCustomRule(spec)
		if err != nil {
			return nil, err
		}
		n.SeverityRules[tool] = append(n.SeverityRules[tool], rule)
	}
	return n, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
