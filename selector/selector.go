// Package selector decides which catalog tools run for a given repository
// state and in what order: per-tool eligibility evaluation followed by
// phase-and-dependency-ordered scheduling.
package selector

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jrossi/lintorc/catalog"
)

// Sensitivity is the requested strictness tier; internal tools gate on it.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// atLeastHigh reports whether s meets the "sensitivity >= high" gate
// internal tools use.
func (s Sensitivity) atLeastHigh() bool {
	return s == SensitivityHigh
}

// Family classifies a tool for eligibility purposes (spec §4.3).
type Family string

const (
	FamilyExternal     Family = "external"
	FamilyInternal     Family = "internal"
	FamilyInternalPyqa Family = "internal-pyqa"
)

// SelectionContext captures everything eligibility evaluation reads.
type SelectionContext struct {
	Root               string // repository root; used only for config-file presence checks
	Only               []string // requested --only tool names; empty means "no restriction"
	RequestedLanguages []string
	DetectedLanguages  []string
	FileExtensions     []string // lowercased
	Sensitivity        Sensitivity
	PyqaWorkspace      bool // true when scanning the orchestrator's own repository
	PyqaRulesForced    bool
}

// ToolDecision records the eligibility outcome for one catalog tool,
// retained even for skipped tools so a plan can be explained without
// executing it.
type ToolDecision struct {
	Name    string
	Family  Family
	Phase   catalog.Phase
	Run     bool
	Reasons []string
}

// SelectionResult is the complete output of planning: the tools that will
// run, in execution order, plus the full decision log.
type SelectionResult struct {
	Ordered   []string
	Decisions []ToolDecision
}

// UnknownToolRequestedError is returned when --only names a tool absent
// from the registry.
type UnknownToolRequestedError struct {
	Requested []string
}

func (e *UnknownToolRequestedError) Error() string {
	return fmt.Sprintf("unknown tools requested via --only: %s", strings.Join(e.Requested, ", "))
}

// Plan evaluates eligibility for every tool in reg and returns the
// phase-and-dependency-ordered execution plan.
func Plan(reg *catalog.Registry, sc SelectionContext) (SelectionResult, error) {
	defs := reg.All()

	if len(sc.Only) > 0 {
		if err := validateOnly(reg, sc.Only); err != nil {
			return SelectionResult{}, err
		}
	}

	decisions := make([]ToolDecision, 0, len(defs))
	selected := make(map[string]catalog.ToolDefinition)

	for _, def := range defs {
		family := classify(def)
		run, reasons := evaluate(def, family, sc)
		decisions = append(decisions, ToolDecision{
			Name: def.Name, Family: family, Phase: def.Phase, Run: run, Reasons: reasons,
		})
		if run {
			selected[def.Name] = def
		}
	}

	ordered := order(reg, selected)

	return SelectionResult{Ordered: ordered, Decisions: decisions}, nil
}

func validateOnly(reg *catalog.Registry, only []string) error {
	var unknown []string
	for _, name := range only {
		if _, ok := reg.Lookup(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return &UnknownToolRequestedError{Requested: unknown}
	}
	return nil
}

func classify(def catalog.ToolDefinition) Family {
	switch {
	case def.HasTag("internal-pyqa"):
		return FamilyInternalPyqa
	case def.HasTag("internal-linter"):
		return FamilyInternal
	default:
		return FamilyExternal
	}
}

func inOnlySet(name string, only []string) bool {
	for _, n := range only {
		if n == name {
			return true
		}
	}
	return false
}

func evaluate(def catalog.ToolDefinition, family Family, sc SelectionContext) (bool, []string) {
	if len(sc.Only) > 0 {
		if inOnlySet(def.Name, sc.Only) {
			return true, []string{"only-requested"}
		}
		return false, []string{"not-in-only-set"}
	}

	switch family {
	case FamilyExternal:
		return evaluateExternal(def, sc)
	case FamilyInternal:
		return evaluateInternal(def, sc)
	case FamilyInternalPyqa:
		run, reasons := evaluateInternal(def, sc)
		if !run {
			return false, reasons
		}
		if sc.PyqaWorkspace || sc.PyqaRulesForced {
			return true, append(reasons, "workspace-match")
		}
		return false, []string{"pyqa-scope-disabled"}
	default:
		return false, []string{"unknown-family"}
	}
}

// evaluateExternal runs a third-party tool iff it declares no constraints
// or at least one declared constraint matched. Reasons use the fixed
// vocabulary: "workspace-match" plus each matched criterion on success;
// on failure, only the negation of each constraint the tool actually
// declared ("no-language-match", "no-extension-match", "missing-config"),
// with "no-signal" as the fallback.
func evaluateExternal(def catalog.ToolDefinition, sc SelectionContext) (bool, []string) {
	hasLanguages := len(def.Languages) > 0
	hasExtensions := len(def.FileExtensions) > 0
	hasConfigs := len(def.ConfigFiles) > 0

	var matched []string
	if hasLanguages && (languageMatch(def.Languages, sc.RequestedLanguages) || languageMatch(def.Languages, sc.DetectedLanguages)) {
		matched = append(matched, "language-match")
	}
	if hasExtensions && extensionMatch(def.FileExtensions, sc.FileExtensions) {
		matched = append(matched, "extension-match")
	}
	if hasConfigs && configPresent(def.ConfigFiles, sc.Root) {
		matched = append(matched, "config-present")
	}

	if (!hasLanguages && !hasExtensions && !hasConfigs) || len(matched) > 0 {
		return true, append([]string{"workspace-match"}, matched...)
	}

	var reasons []string
	if hasLanguages {
		reasons = append(reasons, "no-language-match")
	}
	if hasExtensions {
		reasons = append(reasons, "no-extension-match")
	}
	if hasConfigs {
		reasons = append(reasons, "missing-config")
	}
	if len(reasons) == 0 {
		reasons = []string{"no-signal"}
	}
	return false, reasons
}

// configPresent reports whether any of names exists directly under root.
func configPresent(names []string, root string) bool {
	if root == "" {
		return false
	}
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			return true
		}
	}
	return false
}

func evaluateInternal(def catalog.ToolDefinition, sc SelectionContext) (bool, []string) {
	if sc.Sensitivity.atLeastHigh() {
		return true, []string{"sensitivity>=high"}
	}
	if def.DefaultEnabled {
		return true, []string{"default-enabled"}
	}
	return false, []string{"sensitivity-too-low"}
}

func languageMatch(toolLanguages, candidates []string) bool {
	for _, lang := range toolLanguages {
		for _, c := range candidates {
			if strings.EqualFold(lang, c) {
				return true
			}
		}
	}
	return false
}

func extensionMatch(toolExtensions, fileExtensions []string) bool {
	for _, ext := range toolExtensions {
		for _, have := range fileExtensions {
			if strings.EqualFold(ext, have) {
				return true
			}
		}
	}
	return false
}

// order partitions selected by phase (declared order first, unknown
// phases sorted alphabetically after), then topologically sorts each
// phase's tools by their before/after edges with a stable tie-break on
// registration order.
func order(reg *catalog.Registry, selected map[string]catalog.ToolDefinition) []string {
	phases := make(map[catalog.Phase][]string)
	for name, def := range selected {
		phases[def.Phase] = append(phases[def.Phase], name)
	}

	var phaseNames []catalog.Phase
	for p := range phases {
		phaseNames = append(phaseNames, p)
	}
	sort.Slice(phaseNames, func(i, j int) bool {
		return catalog.ComparePhases(phaseNames[i], phaseNames[j]) < 0
	})

	var out []string
	for _, phase := range phaseNames {
		names := phases[phase]
		sort.Slice(names, func(i, j int) bool {
			return reg.InsertionIndex(names[i]) < reg.InsertionIndex(names[j])
		})
		out = append(out, topoSort(reg, selected, names)...)
	}
	return out
}

// topoSort linearizes names by the before/after edges declared among
// selected tools, restricted to edges whose endpoints are both present in
// names. On a cycle it degrades to the insertion-ordered input (spec
// §3 invariant: "before/after cycles downgrade silently to insertion
// order").
func topoSort(reg *catalog.Registry, selected map[string]catalog.ToolDefinition, names []string) []string {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	// edges[a] = tools that must come before a.
	edges := make(map[string]map[string]bool, len(names))
	for _, n := range names {
		edges[n] = make(map[string]bool)
	}
	for _, n := range names {
		def := selected[n]
		for _, after := range def.After {
			if present[after] {
				edges[n][after] = true
			}
		}
		for _, before := range def.Before {
			if present[before] {
				edges[before][n] = true
			}
		}
	}

	visited := make(map[string]int) // 0=unvisited 1=in-progress 2=done
	var out []string
	cycle := false

	var visit func(n string)
	visit = func(n string) {
		if visited[n] == 2 || cycle {
			return
		}
		if visited[n] == 1 {
			cycle = true
			return
		}
		visited[n] = 1
		deps := make([]string, 0, len(edges[n]))
		for dep := range edges[n] {
			deps = append(deps, dep)
		}
		sort.Slice(deps, func(i, j int) bool {
			return reg.InsertionIndex(deps[i]) < reg.InsertionIndex(deps[j])
		})
		for _, dep := range deps {
			visit(dep)
			if cycle {
				return
			}
		}
		visited[n] = 2
		out = append(out, n)
	}

	for _, n := range names {
		visit(n)
		if cycle {
			return names
		}
	}

	return out
}

// normalizeExtension lowercases and ensures a leading dot, used by callers
// building SelectionContext.FileExtensions from discovered file paths.
func normalizeExtension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// NormalizeExtensions maps a file list to their lowercased extensions,
// suitable for SelectionContext.FileExtensions.
func NormalizeExtensions(files []string) []string {
	seen := make(map[string]bool, len(files))
	var out []string
	for _, f := range files {
		ext := normalizeExtension(f)
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}
