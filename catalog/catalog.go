// Package catalog holds the immutable, declarative description of every
// tool the orchestrator can run: what phase it belongs to, what runtime
// provisions it, what actions it exposes, and how to parse their output.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jrossi/lintorc/diag"
	"github.com/jrossi/lintorc/runtimekind"
)

// Phase is a named stage in the total execution order. Tools in an earlier
// phase always finish before tools in a later one.
type Phase string

const (
	PhaseFormat   Phase = "format"
	PhaseLint     Phase = "lint"
	PhaseAnalysis Phase = "analysis"
	PhaseUtility  Phase = "utility"
)

// phaseOrder is the fixed total order named phases sort into; phases not
// present here sort after all of these, in alphabetical order among
// themselves.
var phaseOrder = map[Phase]int{
	PhaseFormat:   0,
	PhaseLint:     1,
	PhaseAnalysis: 2,
	PhaseUtility:  3,
}

// ComparePhases orders a before b. Unknown phases sort after every known
// phase, then alphabetically among each other.
func ComparePhases(a, b Phase) int {
	ra, aKnown := phaseOrder[a]
	rb, bKnown := phaseOrder[b]
	switch {
	case aKnown && bKnown:
		return ra - rb
	case aKnown && !bKnown:
		return -1
	case !aKnown && bKnown:
		return 1
	default:
		if a == b {
			return 0
		}
		if a < b {
			return -1
		}
		return 1
	}
}

// ToolContext is the per-invocation context a command template, parser, or
// internal runner is handed.
type ToolContext struct {
	Root         string
	Files        []string
	ToolSettings ToolSettings
}

// ToolSettings is the resolved, tool-specific subset of config: free-form
// CLI args and environment variable overrides (spec §8 scenario 1).
type ToolSettings struct {
	Args []string
	Env  map[string]string
}

// CommandFunc builds an argv (excluding the file-list, which is appended
// separately when ToolAction.AppendFiles is set) from a ToolContext.
type CommandFunc func(ctx ToolContext) []string

// InternalRunner bypasses subprocess execution entirely and produces an
// outcome directly; used for in-process analysis tools (e.g. the bundled
// markdown/frontmatter checks).
type InternalRunner func(ctx ToolContext) (diag.ToolOutcome, error)

// Installer is a one-shot setup callable, invoked at most once per
// orchestrator root before the owning tool's first action runs.
type Installer func(ctx ToolContext) error

// ToolAction is one invocation unit of a tool.
type ToolAction struct {
	Name           string
	Command        CommandFunc
	AppendFiles    bool
	Parser         diag.Parser
	FilterPatterns []string // per-tool; merged with config-supplied patterns by orchestrator.BuildNormalizer
	InternalRunner InternalRunner
}

// ToolDefinition is an immutable, catalog-sourced description of one tool.
type ToolDefinition struct {
	Name    string
	Phase   Phase
	Runtime runtimekind.Kind
	Actions []ToolAction

	// Before/After name sibling tools used to derive the intra-phase
	// dependency graph (spec §4.3).
	Before []string
	After  []string

	// Eligibility signals.
	Languages      []string
	FileExtensions []string
	ConfigFiles    []string

	// Runtime provisioning metadata.
	Package        string
	MinVersion     string
	VersionCommand []string

	// Tags carries freeform classifiers; "internal-linter" and
	// "internal-pyqa" drive family classification in the selector.
	Tags []string

	DefaultEnabled bool
	PreferLocal    bool
	AutoInstall    bool

	Installers []Installer
}

// HasTag reports whether t carries the named tag.
func (t ToolDefinition) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// Action looks up one of t's actions by name.
func (t ToolDefinition) Action(name string) (ToolAction, bool) {
	for _, a := range t.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return ToolAction{}, false
}

// Registry is an indexed, append-only collection of ToolDefinitions.
// Registration happens once at startup; lookups are safe for concurrent use
// from many goroutines during a run.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]ToolDefinition
	order  []string // insertion order, used as the stable tie-break
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]ToolDefinition)}
}

// Register adds a tool definition. It panics on a duplicate name: catalog
// construction is a startup-time programming error, not a runtime one.
func (r *Registry) Register(def ToolDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[def.Name]; exists {
		panic(fmt.Sprintf("catalog: duplicate tool name %q", def.Name))
	}
	r.byName[def.Name] = def
	r.order = append(r.order, def.Name)
}

// Lookup returns the named tool definition, if registered.
func (r *Registry) Lookup(name string) (ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byName[name]
	return def, ok
}

// All returns every registered tool in insertion order.
func (r *Registry) All() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns every registered tool name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// InsertionIndex returns the registration order of name, used by the
// selector as the stable tie-break in topological sort. Returns -1 if name
// was never registered.
func (r *Registry) InsertionIndex(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, n := range r.order {
		if n == name {
			return i
		}
	}
	return -1
}
