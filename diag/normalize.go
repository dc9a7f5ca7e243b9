package diag

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// SeverityRule overrides the severity of diagnostics whose code or message
// matches Pattern. Built-in rules mirror spec §4.6: ruff D###/N### -> notice,
// pylint C####/R#### -> notice.
type SeverityRule struct {
	Pattern  *regexp.Regexp
	Severity Severity
}

// BuiltinSeverityRules returns the default per-tool override rules named in
// spec §4.6.
func BuiltinSeverityRules() map[string][]SeverityRule {
	return map[string][]SeverityRule{
		"ruff": {
			{Pattern: regexp.MustCompile(`^(D|N)\d{3}$`), Severity: SeverityNotice},
		},
		"pylint": {
			{Pattern: regexp.MustCompile(`^(C|R)\d{4}$`), Severity: SeverityNotice},
		},
	}
}

// ParseCustomRule parses a "tool:regex=level" rule string, the format spec
// §4.6 describes for config-supplied severity overrides.
func ParseCustomRule(spec string) (tool string, rule SeverityRule, err error) {
	colon := strings.Index(spec, ":")
	eq := strings.LastIndex(spec, "=")
	if colon < 0 || eq < 0 || eq < colon {
		return "", SeverityRule{}, fmt.Errorf("invalid severity rule %q: want tool:regex=level", spec)
	}
	tool = spec[:colon]
	pattern := spec[colon+1 : eq]
	level := Severity(spec[eq+1:])
	if !level.Valid() {
		return "", SeverityRule{}, fmt.Errorf("invalid severity rule %q: unknown level %q", spec, level)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", SeverityRule{}, fmt.Errorf("invalid severity rule %q: %w", spec, err)
	}
	return tool, SeverityRule{Pattern: re, Severity: level}, nil
}

// Normalizer converts RawDiagnostic values into the canonical Diagnostic
// model: path normalization, severity mapping, override rules, filter
// patterns, and dedupe (spec §4.6).
type Normalizer struct {
	// SeverityRules is keyed by tool name; "*" applies to every tool.
	SeverityRules map[string][]SeverityRule
	// FilterPatterns is keyed by tool name; matches are dropped. Each
	// pattern is matched against the rendered line
	// "<tool> <file> <line> <code> <message>".
	FilterPatterns map[string][]*regexp.Regexp
	// RepoRoot, when set, diagnostic file paths are made relative to it.
	RepoRoot string
}

// NewNormalizer creates a Normalizer seeded with the built-in severity
// rules.
func NewNormalizer(repoRoot string) *Normalizer {
	return &Normalizer{
		SeverityRules:  BuiltinSeverityRules(),
		FilterPatterns: map[string][]*regexp.Regexp{},
		RepoRoot:       repoRoot,
	}
}

// Normalize converts raw diagnostics from one tool action into the canonical
// model: severity resolution, path normalization, override rules, filter
// patterns, and dedupe, in that order (spec §4.6 steps 1-3).
func (n *Normalizer) Normalize(tool string, raws []RawDiagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(raws))
	seen := make(map[string]bool, len(raws))

	for _, raw := range raws {
		d := Diagnostic{
			File:     n.normalizePath(raw.File),
			Line:     raw.Line,
			Column:   raw.Column,
			Severity: n.resolveSeverity(tool, raw),
			Message:  raw.Message,
			Tool:     tool,
			Code:     raw.Code,
			Group:    raw.Group,
		}

		if n.filtered(tool, d) {
			continue
		}

		key := d.dedupeKey()
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, d)
	}

	return out
}

// normalizePath yields the repo-relative, forward-slash form of p. An empty
// path round-trips to empty (spec invariant: Diagnostic.File is null or
// repo-relative).
func (n *Normalizer) normalizePath(p string) string {
	if p == "" {
		return ""
	}
	if n.RepoRoot != "" && filepath.IsAbs(p) {
		if rel, err := filepath.Rel(n.RepoRoot, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}
	return filepath.ToSlash(p)
}

// resolveSeverity maps a raw severity via: (a) explicit tool-reported value,
// then (b) code-prefix convention (E/F->error, W->warning), then (c) the
// default warning, then applies override rules (tool-specific, then "*").
func (n *Normalizer) resolveSeverity(tool string, raw RawDiagnostic) Severity {
	sev := explicitSeverity(raw.Severity)
	if sev == "" {
		sev = codePrefixSeverity(raw.Code)
	}
	if sev == "" {
		sev = SeverityWarning
	}

	for _, rule := range n.SeverityRules[tool] {
		if rule.Pattern.MatchString(raw.Code) || rule.Pattern.MatchString(raw.Message) {
			sev = rule.Severity
		}
	}
	for _, rule := range n.SeverityRules["*"] {
		if rule.Pattern.MatchString(raw.Code) || rule.Pattern.MatchString(raw.Message) {
			sev = rule.Severity
		}
	}

	return sev
}

func explicitSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "error", "fatal":
		return SeverityError
	case "warning", "warn":
		return SeverityWarning
	case "notice":
		return SeverityNotice
	case "note", "info", "information":
		return SeverityNote
	default:
		return ""
	}
}

func codePrefixSeverity(code string) Severity {
	if code == "" {
		return ""
	}
	switch code[0] {
	case 'E', 'F':
		return SeverityError
	case 'W':
		return SeverityWarning
	default:
		return ""
	}
}

// filtered reports whether d should be dropped per the configured filter
// patterns for tool (and the wildcard "*" patterns).
func (n *Normalizer) filtered(tool string, d Diagnostic) bool {
	line := fmt.Sprintf("%s %s %d %s %s", tool, d.File, d.Line, d.Code, d.Message)
	for _, re := range n.FilterPatterns[tool] {
		if re.MatchString(line) {
			return true
		}
	}
	for _, re := range n.FilterPatterns["*"] {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
