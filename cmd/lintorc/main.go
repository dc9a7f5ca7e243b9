// Command lintorc is a thin demonstration binary that wires discovery,
// selection, runtime preparation, execution, normalization, and result
// caching into a runnable pipeline. Argument parsing and report
// rendering are explicitly out of this repository's scope (spec §1);
// this binary exists to exercise the engine end to end, not to be a
// finished product CLI -- grounded on cmd/ccfeedback/main.go's overall
// shape (load config, build the engine, run, map to an exit code), with
// cobra in place of the teacher's flag package since this binary is an
// illustrative driver rather than this repo's product surface.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jrossi/lintorc/catalog"
	"github.com/jrossi/lintorc/config"
	"github.com/jrossi/lintorc/diag"
	"github.com/jrossi/lintorc/discovery"
	"github.com/jrossi/lintorc/logging"
	"github.com/jrossi/lintorc/orchestrator"
	"github.com/jrossi/lintorc/resultcache"
	"github.com/jrossi/lintorc/runtime"
	"github.com/jrossi/lintorc/selector"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type runOptions struct {
	root             string
	onlyTools        []string
	mode             string
	baseBranch       string
	diffRef          string
	includeUntracked bool
	cacheDir         string
	catalogFile      string
	noCache          bool
	bail             bool
	jobs             int
	sensitivity      string
	explainTools     bool
	debug            bool
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:           "lintorc",
		Short:         "Polyglot lint orchestrator engine driver",
		Long:          "lintorc discovers candidate files, plans which catalog tools to run, prepares their runtimes, executes them under bounded parallelism, and reports normalized diagnostics.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.root, "root", ".", "repository root to lint")
	cmd.Flags().StringSliceVar(&opts.onlyTools, "only", nil, "restrict the plan to these tool names")
	cmd.Flags().StringVar(&opts.mode, "mode", "working_tree", "discovery mode: working_tree|pre_commit|base_branch|diff_ref")
	cmd.Flags().StringVar(&opts.baseBranch, "base-branch", "main", "base branch for --mode=base_branch")
	cmd.Flags().StringVar(&opts.diffRef, "diff-ref", "", "ref for --mode=diff_ref")
	cmd.Flags().BoolVar(&opts.includeUntracked, "include-untracked", false, "union in untracked files")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", defaultCacheDir(), "base directory for the tool and result caches")
	cmd.Flags().StringVar(&opts.catalogFile, "catalog", "", "TOML catalog file with additional tool definitions (default <root>/.lintorc/catalog.toml when present)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache for this run")
	cmd.Flags().BoolVar(&opts.bail, "bail", false, "stop after the first non-success outcome")
	cmd.Flags().IntVar(&opts.jobs, "jobs", 0, "maximum concurrent actions per phase (0 = 75% of CPU cores)")
	cmd.Flags().StringVar(&opts.sensitivity, "sensitivity", "medium", "internal-tool sensitivity: low|medium|high")
	cmd.Flags().BoolVar(&opts.explainTools, "explain-tools", false, "print the selection plan and exit without executing")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "emit debug-level engine messages")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "lintorc %s (%s)\n", version, commit)
			return nil
		},
	}
}

func defaultCacheDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "lintorc")
	}
	return ".lintorc-cache"
}

func runEngine(cmd *cobra.Command, opts *runOptions) error {
	root, err := filepath.Abs(opts.root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	loader := config.NewLoaderAt(root, homeDirOrRoot())
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlagOverrides(cfg, opts)

	if err := config.MergeRulesFile(cfg, filepath.Join(root, ".lintorc", "rules.yaml")); err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	logger := logging.New(cmd.ErrOrStderr(), opts.debug)

	reg := catalog.NewRegistry()
	catalog.RegisterBuiltins(reg)

	catalogPath := opts.catalogFile
	if catalogPath == "" {
		if p := filepath.Join(root, ".lintorc", "catalog.toml"); fileExists(p) {
			catalogPath = p
		}
	}
	if catalogPath != "" {
		if err := catalog.LoadFile(reg, catalogPath); err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}
	}

	normalizer, err := orchestrator.BuildNormalizer(root, reg, cfg)
	if err != nil {
		return fmt.Errorf("building normalizer: %w", err)
	}

	layout := runtime.NewCacheLayout(filepath.Join(opts.cacheDir, "tools"))
	preparer := runtime.NewPreparer(layout)
	cache := resultcache.NewWithLogger(filepath.Join(opts.cacheDir, "results.json"), cfg.CacheEnabled(), logger)

	var disc discovery.Discoverer
	if discovery.Mode(opts.mode) == discovery.ModeWorkingTree && opts.diffRef == "" && opts.baseBranch == "" {
		disc = discovery.NewFilesystemDiscovery()
	} else {
		disc = discovery.NewGitDiscovery()
	}

	orch := orchestrator.New(reg, disc, preparer, cache, normalizer, cfg)
	orch.Logger = logger
	orch.Hooks.OnBeforeTool(func(name string) {
		fmt.Fprintf(cmd.ErrOrStderr(), "==> %s\n", name)
	})

	sc := selector.SelectionContext{
		Only:        opts.onlyTools,
		Sensitivity: selector.Sensitivity(opts.sensitivity),
	}

	if opts.explainTools {
		plan, err := selector.Plan(reg, sc)
		if err != nil {
			return err
		}
		printPlan(cmd, plan)
		return nil
	}

	dc := discovery.Config{
		Mode:             discovery.Mode(opts.mode),
		BaseBranch:       opts.baseBranch,
		DiffRef:          opts.diffRef,
		IncludeUntracked: opts.includeUntracked,
	}
	if fd := cfg.FileDiscovery; fd != nil {
		dc.LimitTo = fd.LimitTo
		dc.ExcludeGlobs = fd.ExcludeGlobs
		if fd.IncludeDotfiles != nil {
			dc.IncludeDotfiles = *fd.IncludeDotfiles
		}
	}

	ctx := context.Background()
	result, err := orch.Run(ctx, orchestrator.RunOptions{Root: root, Discovery: dc, Selection: sc})
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	printResult(cmd, result)

	if result.HasFailures() {
		os.Exit(1)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func homeDirOrRoot() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func applyFlagOverrides(cfg *config.AppConfig, opts *runOptions) {
	if cfg.Execution == nil {
		cfg.Execution = &config.ExecutionConfig{}
	}
	if opts.bail {
		t := true
		cfg.Execution.Bail = &t
	}
	if opts.jobs > 0 {
		cfg.Execution.Jobs = &opts.jobs
	}
	if opts.noCache {
		f := false
		cfg.Execution.CacheEnabled = &f
	} else if cfg.Execution.CacheEnabled == nil {
		t := true
		cfg.Execution.CacheEnabled = &t
	}
}

func printPlan(cmd *cobra.Command, plan selector.SelectionResult) {
	out := cmd.OutOrStdout()
	for _, d := range plan.Decisions {
		status := "skip"
		if d.Run {
			status = "run "
		}
		fmt.Fprintf(out, "%s %-24s phase=%-10s family=%-14s reasons=%s\n",
			status, d.Name, d.Phase, d.Family, strings.Join(d.Reasons, ","))
	}
}

func printResult(cmd *cobra.Command, result diag.RunResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d files, %d outcomes\n", result.RunID, len(result.Files), len(result.Outcomes))
	for _, o := range result.Outcomes {
		fmt.Fprintf(out, "  %-20s %-10s exit=%-10s cached=%-5v diagnostics=%d\n",
			o.Tool, o.Action, o.ExitCategory, o.Cached, len(o.Diagnostics))
		for _, d := range o.Diagnostics {
			loc := d.File
			if d.Line > 0 {
				loc = fmt.Sprintf("%s:%d", loc, d.Line)
			}
			fmt.Fprintf(out, "    %-7s %-30s %s [%s]\n", d.Severity, loc, d.Message, d.Code)
		}
	}
}
