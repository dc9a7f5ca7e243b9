// Package exec spawns prepared commands with a fixed stdin/environment
// discipline, captures their output, and maps the result into a
// diag.ToolOutcome -- grounded on linters/golang/golang.go's
// exec.CommandContext + cmd.Dir + buffered stdout/stderr idiom, bounded
// across the whole run by a golang.org/x/sync/semaphore.Weighted pool in
// place of a hand-rolled channel-based worker pool.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jrossi/lintorc/catalog"
	"github.com/jrossi/lintorc/diag"
)

// timeoutReturnCode is reserved for synthesized timeout outcomes (spec §4.5/§7).
const timeoutReturnCode = 124

// Request is everything the executor needs to run one (tool, action).
type Request struct {
	Tool       string
	Action     string
	Argv       []string
	Env        map[string]string
	Dir        string
	Timeout    time.Duration
	Parser     diag.Parser
	Normalizer *diag.Normalizer // required when Parser is set
}

// Executor runs prepared commands under a bounded concurrency limit.
type Executor struct {
	sem *semaphore.Weighted
}

// NewExecutor returns an Executor that runs at most maxParallel actions
// concurrently. maxParallel <= 0 means unbounded.
func NewExecutor(maxParallel int) *Executor {
	if maxParallel <= 0 {
		maxParallel = 1 << 30 // effectively unbounded, still a valid semaphore weight
	}
	return &Executor{sem: semaphore.NewWeighted(int64(maxParallel))}
}

// Run acquires a concurrency slot, executes req, and returns a populated
// diag.ToolOutcome. It never returns an error for a failed or timed-out
// subprocess -- only for a caller-cancelled context or a semaphore
// acquisition failure, both of which abort before any process spawns.
func (e *Executor) Run(ctx context.Context, req Request) (diag.ToolOutcome, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return diag.ToolOutcome{}, fmt.Errorf("exec: acquiring concurrency slot: %w", err)
	}
	defer e.sem.Release(1)

	return e.run(ctx, req), nil
}

func (e *Executor) run(ctx context.Context, req Request) diag.ToolOutcome {
	if len(req.Argv) == 0 {
		return diag.ToolOutcome{
			Tool: req.Tool, Action: req.Action,
			ReturnCode: -1, ExitCategory: diag.ExitToolFailure,
			Stderr: []string{"exec: empty argv"},
		}
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if req.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, req.Argv[0], req.Argv[1:]...)
	cmd.Dir = req.Dir
	cmd.Stdin = nil // os/exec redirects a nil Stdin from the null device automatically

	if len(req.Env) > 0 {
		env := os.Environ()
		for k, v := range req.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		stderrLines := splitLines(stderr.String())
		stderrLines = append(stderrLines, fmt.Sprintf("lintorc: %s timed out after %s", req.Tool, req.Timeout))
		return diag.ToolOutcome{
			Tool: req.Tool, Action: req.Action,
			ReturnCode:   timeoutReturnCode,
			Stdout:       splitLines(stdout.String()),
			Stderr:       stderrLines,
			ExitCategory: diag.ExitTimeout,
		}
	}

	returnCode := exitCodeOf(err)
	outcome := diag.ToolOutcome{
		Tool: req.Tool, Action: req.Action,
		ReturnCode: returnCode,
		Stdout:     splitLines(stdout.String()),
		Stderr:     splitLines(stderr.String()),
	}

	if req.Parser != nil {
		if raw, perr := req.Parser(stdout.Bytes(), stderr.Bytes()); perr == nil {
			normalizer := req.Normalizer
			if normalizer == nil {
				normalizer = diag.NewNormalizer("")
			}
			outcome.Diagnostics = normalizer.Normalize(req.Tool, raw)
		} else {
			// spec §7 DiagnosticFailure: a parser error is recorded as a
			// single synthetic diagnostic pointing at the tool, and the
			// outcome is forced to tool_failure regardless of returncode
			// -- a zero exit must never mask a parser that couldn't make
			// sense of the tool's own output.
			msg := fmt.Sprintf("lintorc: failed to parse %s output: %v", req.Tool, perr)
			outcome.Stderr = append(outcome.Stderr, msg)
			outcome.Diagnostics = []diag.Diagnostic{{
				Severity: diag.SeverityError,
				Message:  msg,
				Tool:     req.Tool,
			}}
			outcome.ExitCategory = diag.ExitToolFailure
			return outcome
		}
	}

	outcome.ExitCategory = categorize(returnCode, len(outcome.Diagnostics) > 0)
	return outcome
}

// categorize maps a return code (plus whether diagnostics were parsed
// out of the output) to an exit category, per spec §4.5 step 5.
func categorize(returnCode int, hasDiagnostics bool) diag.ExitCategory {
	switch {
	case returnCode == 0:
		return diag.ExitSuccess
	case hasDiagnostics:
		return diag.ExitDiagnostic
	default:
		return diag.ExitToolFailure
	}
}

// exitCodeOf extracts a subprocess's return code from cmd.Run()'s error,
// synthesizing -1 for a failure that never produced a return code (e.g.
// the binary could not be found or exec'd at all).
func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// BuildArgv applies a tool action's command template to ctx, appending
// the discovered file list when the action declares AppendFiles.
func BuildArgv(action catalog.ToolAction, ctx catalog.ToolContext) []string {
	argv := action.Command(ctx)
	if !action.AppendFiles {
		return argv
	}
	out := make([]string, 0, len(argv)+len(ctx.Files))
	out = append(out, argv...)
	out = append(out, ctx.Files...)
	return out
}
