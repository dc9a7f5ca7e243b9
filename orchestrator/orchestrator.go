// Package orchestrator drives the end-to-end pipeline: discover files,
// plan tool selection, prepare and execute each selected tool's actions
// under bounded, phase-ordered parallelism, and aggregate the results --
// grounded on linting_engine.go's LintingRuleEngine (owns the linter
// list, executor, and config, and drives ExecuteLinters then result
// aggregation) and linters/parallel.go's worker-pool shape, generalized
// from a fixed in-process linter list to the catalog-driven plan and
// from a hand-rolled channel pool to golang.org/x/sync/errgroup.
package orchestrator

import (
	goruntime "runtime"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/google/uuid"

	"github.com/jrossi/lintorc/catalog"
	"github.com/jrossi/lintorc/config"
	"github.com/jrossi/lintorc/diag"
	"github.com/jrossi/lintorc/discovery"
	"github.com/jrossi/lintorc/exec"
	"github.com/jrossi/lintorc/logging"
	"github.com/jrossi/lintorc/resultcache"
	"github.com/jrossi/lintorc/runtime"
	"github.com/jrossi/lintorc/selector"

	"context"
)

// Orchestrator owns every collaborator a run needs and the per-instance
// state (installer bookkeeping) that must survive across repeated Run
// calls but not across separate Orchestrator values (spec §8 scenario 6).
type Orchestrator struct {
	Registry   *catalog.Registry
	Discoverer discovery.Discoverer
	Preparer   *runtime.Preparer
	Cache      *resultcache.Cache
	Normalizer *diag.Normalizer
	Config     *config.AppConfig
	Hooks      *Hooks
	Logger     logging.Logger

	installMu      sync.Mutex
	installedRoots map[string]map[string]bool // root -> tool name -> installers ran
}

// New builds an Orchestrator. cfg and normalizer may be nil, in which
// case defaults (config.New(), diag.NewNormalizer("")) are used.
func New(reg *catalog.Registry, disc discovery.Discoverer, prep *runtime.Preparer, cache *resultcache.Cache, normalizer *diag.Normalizer, cfg *config.AppConfig) *Orchestrator {
	if cfg == nil {
		cfg = config.New()
	}
	if normalizer == nil {
		normalizer = diag.NewNormalizer("")
	}
	return &Orchestrator{
		Registry:       reg,
		Discoverer:     disc,
		Preparer:       prep,
		Cache:          cache,
		Normalizer:     normalizer,
		Config:         cfg,
		Hooks:          NewHooks(),
		Logger:         logging.Nop(),
		installedRoots: make(map[string]map[string]bool),
	}
}

// RunOptions parameterizes one orchestrator run.
type RunOptions struct {
	Root      string
	Discovery discovery.Config
	Selection selector.SelectionContext // Root and FileExtensions are filled in by Run
}

// Run executes the full pipeline and returns the aggregated RunResult.
// It returns an error only for a plan-construction failure (an unknown
// --only tool name) or a caller-cancelled context observed before any
// work started; every containable per-tool failure is folded into a
// diag.ToolOutcome instead of propagating.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (diag.RunResult, error) {
	root := opts.Root

	if err := ctx.Err(); err != nil {
		return diag.RunResult{}, err
	}

	files, _ := o.Discoverer.Discover(ctx, opts.Discovery, root)
	o.Logger.Debug("discovered %d candidate files under %s", len(files), root)
	o.Hooks.fireAfterDiscovery(len(files))

	sc := opts.Selection
	sc.Root = root
	sc.FileExtensions = selector.NormalizeExtensions(files)

	plan, err := selector.Plan(o.Registry, sc)
	if err != nil {
		return diag.RunResult{}, err
	}
	o.Logger.Debug("selected %d of %d tools", len(plan.Ordered), len(plan.Decisions))
	o.Hooks.fireAfterPlan(len(plan.Ordered))

	jobs := o.Config.Jobs(defaultJobs())
	if o.Config.Bail() {
		jobs = 1
	}
	executor := exec.NewExecutor(jobs)
	slots := semaphore.NewWeighted(int64(jobs))

	result := diag.RunResult{
		RunID: uuid.NewString(),
		Root:  root,
		Files: files,
	}

	var bailed atomic.Bool

	for _, chunk := range phaseChunks(o.Registry, plan.Ordered) {
		if bailed.Load() {
			break
		}

		outcomes := o.runPhase(ctx, root, files, executor, slots, chunk, &bailed)
		result.Outcomes = append(result.Outcomes, outcomes...)
	}

	o.Hooks.fireAfterExecution(result)
	return result, nil
}

// phaseChunk groups a contiguous run of plan.Ordered tool names sharing
// one phase -- contiguous because selector.order() appends phase by
// phase, never interleaving.
type phaseChunk struct {
	names []string
}

func phaseChunks(reg *catalog.Registry, ordered []string) []phaseChunk {
	var chunks []phaseChunk
	var lastPhase catalog.Phase
	havePhase := false

	for _, name := range ordered {
		def, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		if !havePhase || def.Phase != lastPhase {
			chunks = append(chunks, phaseChunk{})
			lastPhase = def.Phase
			havePhase = true
		}
		chunks[len(chunks)-1].names = append(chunks[len(chunks)-1].names, name)
	}
	return chunks
}

// action is one (tool definition, action) pair queued within a phase, in
// the deterministic submission order spec §8 scenario 5 exercises.
type action struct {
	def catalog.ToolDefinition
	act catalog.ToolAction
}

// runPhase dispatches every action in chunk concurrently, bounded by
// slots, and returns their outcomes in submission order regardless of
// completion order -- preserving the phase-ordering and before/after
// invariants (spec §8). A job slot is acquired before a queued action's
// goroutine does anything -- context build, prepare, cache probe, and
// execute all happen while holding it (spec §4.8 step 3), so a single
// job slot (e.g. --bail, or execution.jobs: 1) serializes a phase's
// actions in submission order, not just their subprocess calls.
func (o *Orchestrator) runPhase(ctx context.Context, root string, files []string, executor *exec.Executor, slots *semaphore.Weighted, chunk phaseChunk, bailed *atomic.Bool) []diag.ToolOutcome {
	var queue []action
	var installOutcomes []diag.ToolOutcome

	for _, name := range chunk.names {
		def, ok := o.Registry.Lookup(name)
		if !ok {
			continue
		}

		if len(def.Installers) > 0 {
			if failure, failed := o.runInstallersOnce(root, files, def); failed {
				installOutcomes = append(installOutcomes, failure)
				if o.Config.Bail() {
					bailed.Store(true)
				}
				continue // spec §4.8: installer failure aborts the tool, not the run
			}
		}

		if bailed.Load() {
			continue
		}

		for _, act := range def.Actions {
			queue = append(queue, action{def: def, act: act})
		}
	}

	outcomes := make([]diag.ToolOutcome, len(queue))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range queue {
		i, a := i, a
		if err := slots.Acquire(gctx, 1); err != nil {
			outcomes[i] = diag.ToolOutcome{Tool: a.def.Name, Action: a.act.Name, ExitCategory: diag.ExitSkipped}
			continue
		}
		g.Go(func() error {
			defer slots.Release(1)
			outcomes[i] = o.runAction(gctx, root, a.def, a.act, files, executor, bailed)
			return nil
		})
	}
	_ = g.Wait()

	return append(installOutcomes, outcomes...)
}

// runInstallersOnce invokes def's installers exactly once per (orchestrator
// instance, root) pair. A failure is recorded as a tool_failure outcome
// but does not itself set bailed unless config.execution.bail is true
// (spec §4.8 step 3).
func (o *Orchestrator) runInstallersOnce(root string, files []string, def catalog.ToolDefinition) (diag.ToolOutcome, bool) {
	o.installMu.Lock()
	roots, ok := o.installedRoots[root]
	if !ok {
		roots = make(map[string]bool)
		o.installedRoots[root] = roots
	}
	if roots[def.Name] {
		o.installMu.Unlock()
		return diag.ToolOutcome{}, false
	}
	roots[def.Name] = true
	o.installMu.Unlock()

	tctx := catalog.ToolContext{Root: root, Files: filesForTool(def, files), ToolSettings: settingsFor(o.Config, def)}
	for _, install := range def.Installers {
		if err := install(tctx); err != nil {
			o.Logger.Fail("installer for %s failed: %v", def.Name, err)
			return diag.ToolOutcome{
				Tool: def.Name, Action: "install",
				ReturnCode: -1, ExitCategory: diag.ExitToolFailure,
				Stderr: []string{err.Error()},
			}, true
		}
	}
	return diag.ToolOutcome{}, false
}

// runAction executes one tool action end to end: context build, cooperative
// bail check, preparation, cache probe, execution on miss, and the
// before_tool/after_tool hook pair.
func (o *Orchestrator) runAction(ctx context.Context, root string, def catalog.ToolDefinition, act catalog.ToolAction, files []string, executor *exec.Executor, bailed *atomic.Bool) diag.ToolOutcome {
	o.Hooks.fireBeforeTool(def.Name)

	if bailed.Load() {
		outcome := diag.ToolOutcome{Tool: def.Name, Action: act.Name, ExitCategory: diag.ExitSkipped}
		o.Hooks.fireAfterTool(outcome)
		return outcome
	}

	settings := settingsFor(o.Config, def)
	tctx := catalog.ToolContext{Root: root, Files: filesForTool(def, files), ToolSettings: settings}

	var outcome diag.ToolOutcome
	if act.InternalRunner != nil {
		runInternal := func() (diag.ToolOutcome, error) { return act.InternalRunner(tctx) }
		var out diag.ToolOutcome
		var err error
		if o.Cache != nil {
			key := o.fingerprint(def, act, nil, tctx, &runtime.PreparedCommand{})
			out, err = o.Cache.GetOrCompute(key, runInternal)
		} else {
			out, err = runInternal()
		}
		if err != nil {
			outcome = diag.ToolOutcome{Tool: def.Name, Action: act.Name, ReturnCode: -1, ExitCategory: diag.ExitToolFailure, Stderr: []string{err.Error()}}
		} else {
			outcome = out
		}
	} else {
		outcome = o.runExternalAction(ctx, root, def, act, tctx, executor)
	}

	o.Hooks.fireAfterTool(outcome)
	if o.Config.Bail() && outcome.HasFailure() {
		o.Logger.Warn("bailing after %s %s (%s)", outcome.Tool, outcome.Action, outcome.ExitCategory)
		bailed.Store(true)
	}
	return outcome
}

func (o *Orchestrator) runExternalAction(ctx context.Context, root string, def catalog.ToolDefinition, act catalog.ToolAction, tctx catalog.ToolContext, executor *exec.Executor) diag.ToolOutcome {
	templateArgv := exec.BuildArgv(act, tctx)

	prepared, err := o.Preparer.Prepare(ctx, def, root, runtime.RequestOptions{
		UseLocalOverride: o.Config.UseLocalOverride(),
		ProjectMode:      o.Config.ProjectMode(),
		SystemPreferred:  o.Config.SystemPreferred(),
	})
	if err != nil {
		o.Logger.Warn("preparing %s failed: %v", def.Name, err)
		return diag.ToolOutcome{Tool: def.Name, Action: act.Name, ReturnCode: -1, ExitCategory: diag.ExitToolFailure, Stderr: []string{err.Error()}}
	}

	finalArgv := append(append([]string{}, prepared.Argv...), templateArgv[1:]...)

	env := make(map[string]string, len(prepared.Env)+len(tctx.ToolSettings.Env))
	for k, v := range prepared.Env {
		env[k] = v
	}
	for k, v := range tctx.ToolSettings.Env {
		env[k] = v
	}

	key := o.fingerprint(def, act, finalArgv, tctx, prepared)

	req := exec.Request{
		Tool: def.Name, Action: act.Name,
		Argv: finalArgv, Env: env, Dir: root,
		Timeout: o.Config.Timeout(),
		Parser:  act.Parser, Normalizer: o.Normalizer,
	}

	if !o.Config.CacheEnabled() {
		outcome, runErr := executor.Run(ctx, req)
		if runErr != nil {
			return diag.ToolOutcome{Tool: def.Name, Action: act.Name, ReturnCode: -1, ExitCategory: diag.ExitToolFailure, Stderr: []string{runErr.Error()}}
		}
		return outcome
	}

	outcome, err := o.Cache.GetOrCompute(key, func() (diag.ToolOutcome, error) {
		return executor.Run(ctx, req)
	})
	if err != nil {
		return diag.ToolOutcome{Tool: def.Name, Action: act.Name, ReturnCode: -1, ExitCategory: diag.ExitToolFailure, Stderr: []string{err.Error()}}
	}
	return outcome
}

// fingerprint builds the cache key for one action invocation. Only the
// tool's own configured env overrides are hashed, not the runtime-prepared
// environment or ambient variables like PATH/TMPDIR (spec §9 design note).
// When prepared resolved to a "system" or "project" binary, that binary's
// size/mtime is folded in too, so a locally reinstalled or upgraded tool
// invalidates previously cached outcomes even with unchanged argv/settings
// (spec §9 open question, resolved in favor of invalidation).
func (o *Orchestrator) fingerprint(def catalog.ToolDefinition, act catalog.ToolAction, argv []string, tctx catalog.ToolContext, prepared *runtime.PreparedCommand) string {
	files := make([]resultcache.FileInput, len(tctx.Files))
	for i, f := range tctx.Files {
		files[i] = resultcache.FileInput{Path: f, Strict: o.Config.StrictFingerprint()}
	}

	kv := map[string]string{"args": strings.Join(tctx.ToolSettings.Args, " ")}
	for k, v := range tctx.ToolSettings.Env {
		kv["env."+k] = v
	}

	var binaryPath string
	if prepared.Source == runtime.SourceSystem || prepared.Source == runtime.SourceProject {
		binaryPath = prepared.Argv[0]
	}

	return resultcache.Fingerprint(resultcache.FingerprintInput{
		Tool: def.Name, Action: act.Name, Argv: argv,
		Env:          tctx.ToolSettings.Env,
		Files:        files,
		ConfigSubset: resultcache.RenderConfigSubset(kv),
		BinaryPath:   binaryPath,
	})
}

func settingsFor(cfg *config.AppConfig, def catalog.ToolDefinition) catalog.ToolSettings {
	entry := cfg.ToolSettingsFor(def.Name)
	return catalog.ToolSettings{Args: entry.Args, Env: entry.Env}
}

// filesForTool restricts files to the extensions def declares, when it
// declares any; tools with no extension constraints see the full set.
func filesForTool(def catalog.ToolDefinition, files []string) []string {
	if len(def.FileExtensions) == 0 {
		return files
	}
	want := make(map[string]bool, len(def.FileExtensions))
	for _, ext := range def.FileExtensions {
		want[strings.ToLower(ext)] = true
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		if want[strings.ToLower(extOf(f))] {
			out = append(out, f)
		}
	}
	return out
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return path[idx:]
}

// defaultJobs is 75% of CPU cores, rounded up to at least 1 (spec §4.8).
func defaultJobs() int {
	n := goruntime.NumCPU() * 3 / 4
	if n < 1 {
		n = 1
	}
	return n
}
