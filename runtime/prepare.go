// Package runtime materializes a catalog tool's prepared command: the
// argv, environment, and provisioning source to use, chosen per ecosystem
// via the system/project/local decision algorithm in spec §4.4.
package runtime

import (
	"context"
	"fmt"

	"github.com/jrossi/lintorc/catalog"
	"github.com/jrossi/lintorc/runtimekind"
)

// Source classifies where a PreparedCommand's executable came from.
type Source string

const (
	SourceSystem  Source = "system"
	SourceLocal   Source = "local"
	SourceProject Source = "project"
)

// PreparedCommand is a ready-to-execute argv plus environment overrides
// and the detected tool version, if any.
type PreparedCommand struct {
	Argv    []string
	Env     map[string]string
	Version string
	Source  Source
}

// RequestOptions bridges legacy keyword-style callers alongside the
// structured request (spec §4.4 invariant: "legacy keyword-style calls
// are accepted alongside the structured request").
type RequestOptions struct {
	UseLocalOverride bool
	ProjectMode      bool
	SystemPreferred  bool
}

// Strategy implements one ecosystem's system/project/local candidates.
// A nil return with a nil error means "no candidate at this tier"; a
// non-nil error always means the operation itself failed, not that the
// tier was merely unavailable.
type Strategy interface {
	TrySystem(ctx context.Context, def catalog.ToolDefinition, cache *CacheLayout) (*PreparedCommand, error)
	TryProject(ctx context.Context, def catalog.ToolDefinition, root string, cache *CacheLayout) (*PreparedCommand, error)
	PrepareLocal(ctx context.Context, def catalog.ToolDefinition, cache *CacheLayout) (*PreparedCommand, error)
}

// Preparer dispatches (tool, action) preparation to the strategy
// registered for the tool's runtime kind.
type Preparer struct {
	Strategies map[string]Strategy // keyed by runtimekind.Kind
	Cache      *CacheLayout
}

// NewPreparer builds a Preparer with the built-in per-ecosystem
// strategies wired in.
func NewPreparer(cache *CacheLayout) *Preparer {
	return &Preparer{
		Strategies: map[string]Strategy{
			"python": &PythonStrategy{},
			"npm":    &NPMStrategy{},
			"go":     &GoStrategy{},
			"rust":   &RustStrategy{},
			"lua":    &LuaStrategy{},
			"perl":   &PerlStrategy{},
			"binary": &BinaryStrategy{},
		},
		Cache: cache,
	}
}

// Prepare implements the decision algorithm from spec §4.4, matching
// RuntimeHandler.prepare's fallthrough (original_source/src/pyqa/tool_env/
// runtimes/base.py): try_project is attempted unconditionally as the last
// resort before prepare_local, not only inside the system_preferred branch.
//
//	if use_local_override OR tool.prefer_local:  prepare_local
//	else:
//	  if project_mode:     try project, return if present
//	  if system_preferred: try system, return if present
//	  try project, return if present
//	  prepare_local
func (p *Preparer) Prepare(ctx context.Context, def catalog.ToolDefinition, root string, opts RequestOptions) (*PreparedCommand, error) {
	strategy, ok := p.Strategies[string(def.Runtime)]
	if !ok {
		return nil, &UnsupportedRuntimeError{Runtime: def.Runtime}
	}

	if opts.UseLocalOverride || def.PreferLocal {
		return strategy.PrepareLocal(ctx, def, p.Cache)
	}

	if opts.ProjectMode || p.Cache.ProjectMode() {
		if cmd, err := strategy.TryProject(ctx, def, root, p.Cache); err != nil {
			return nil, err
		} else if cmd != nil {
			return cmd, nil
		}
	}

	if opts.SystemPreferred {
		if cmd, err := strategy.TrySystem(ctx, def, p.Cache); err != nil {
			return nil, err
		} else if cmd != nil {
			return cmd, nil
		}
	}

	if cmd, err := strategy.TryProject(ctx, def, root, p.Cache); err != nil {
		return nil, err
	} else if cmd != nil {
		return cmd, nil
	}

	return strategy.PrepareLocal(ctx, def, p.Cache)
}

// UnsupportedRuntimeError reports a catalog entry naming a runtime kind
// no strategy is registered for -- a catalog construction bug, not a
// transient failure.
type UnsupportedRuntimeError struct {
	Runtime runtimekind.Kind
}

func (e *UnsupportedRuntimeError) Error() string {
	return fmt.Sprintf("runtime: no strategy registered for runtime kind %q", e.Runtime)
}
