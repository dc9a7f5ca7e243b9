package orchestrator

import (
	"sync"

	"github.com/jrossi/lintorc/diag"
)

// Hooks is the lifecycle event dispatcher a Run emits into, generalized
// from handler.go's Registry (there, hook configs are keyed by event type
// and replayed through ProcessMessage's type switch; here each of the five
// fixed events gets its own typed callback slice since Go has no dynamic
// dispatch on event payload shape). All events are optional: a Hooks value
// with nothing registered is a no-op.
type Hooks struct {
	mu sync.RWMutex

	beforeTool     []func(name string)
	afterTool      []func(outcome diag.ToolOutcome)
	afterDiscovery []func(count int)
	afterPlan      []func(count int)
	afterExecution []func(result diag.RunResult)
}

// NewHooks returns an empty Hooks value.
func NewHooks() *Hooks {
	return &Hooks{}
}

// OnBeforeTool registers fn to run just before each of a tool's actions
// is dispatched.
func (h *Hooks) OnBeforeTool(fn func(name string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.beforeTool = append(h.beforeTool, fn)
}

// OnAfterTool registers fn to run once per completed action outcome.
func (h *Hooks) OnAfterTool(fn func(outcome diag.ToolOutcome)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afterTool = append(h.afterTool, fn)
}

// OnAfterDiscovery registers fn to run once discovery has produced its
// file list.
func (h *Hooks) OnAfterDiscovery(fn func(count int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afterDiscovery = append(h.afterDiscovery, fn)
}

// OnAfterPlan registers fn to run once selection has produced its plan.
func (h *Hooks) OnAfterPlan(fn func(count int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afterPlan = append(h.afterPlan, fn)
}

// OnAfterExecution registers fn to run once the full run has completed.
func (h *Hooks) OnAfterExecution(fn func(result diag.RunResult)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afterExecution = append(h.afterExecution, fn)
}

func (h *Hooks) fireBeforeTool(name string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.beforeTool {
		fn(name)
	}
}

func (h *Hooks) fireAfterTool(outcome diag.ToolOutcome) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.afterTool {
		fn(outcome)
	}
}

func (h *Hooks) fireAfterDiscovery(count int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.afterDiscovery {
		fn(count)
	}
}

func (h *Hooks) fireAfterPlan(count int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.afterPlan {
		fn(count)
	}
}

func (h *Hooks) fireAfterExecution(result diag.RunResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.afterExecution {
		fn(result)
	}
}
