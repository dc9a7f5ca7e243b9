package catalog

import (
	"github.com/jrossi/lintorc/diag"
	"github.com/jrossi/lintorc/runtimekind"
)

// argsThenEnv is the shared command-template shape used by every built-in
// external tool: exeName, then the action's fixed flags, then whatever the
// caller configured in tool_settings.args (spec §8 scenario 1).
func argsThenEnv(exeName string, fixed ...string) CommandFunc {
	return func(ctx ToolContext) []string {
		argv := append([]string{exeName}, fixed...)
		argv = append(argv, ctx.ToolSettings.Args...)
		return argv
	}
}

// RegisterBuiltins adds every tool this distribution ships with to reg.
// Catalog construction is a startup-time step; callers needing a smaller
// or custom catalog should build their own Registry instead of calling
// this.
func RegisterBuiltins(reg *Registry) {
	reg.Register(ToolDefinition{
		Name:           "gofmt",
		Phase:          PhaseFormat,
		Runtime:        runtimekind.Go,
		Languages:      []string{"go"},
		FileExtensions: []string{".go"},
		DefaultEnabled: true,
		Actions: []ToolAction{
			{
				Name:        "check",
				Command:     argsThenEnv("gofmt", "-l"),
				AppendFiles: true,
				Parser:      diag.CheckModeFormatterParser("gofmt", "file is not gofmt-formatted"),
			},
		},
	})

	reg.Register(ToolDefinition{
		Name:           "golangci-lint",
		Phase:          PhaseLint,
		Runtime:        runtimekind.Go,
		Languages:      []string{"go"},
		FileExtensions: []string{".go"},
		ConfigFiles:    []string{".golangci.yml", ".golangci.yaml", ".golangci.toml"},
		Package:        "github.com/golangci/golangci-lint/cmd/golangci-lint",
		MinVersion:     "1.55.0",
		VersionCommand: []string{"golangci-lint", "version"},
		After:          []string{"gofmt"},
		DefaultEnabled: true,
		Actions: []ToolAction{
			{
				Name:        "run",
				Command:     argsThenEnv("golangci-lint", "run", "--out-format", "json"),
				AppendFiles: true,
				Parser:      diag.GolangciLintParser,
			},
		},
	})

	reg.Register(ToolDefinition{
		Name:           "ruff",
		Phase:          PhaseLint,
		Runtime:        runtimekind.Python,
		Languages:      []string{"python"},
		FileExtensions: []string{".py", ".pyi"},
		ConfigFiles:    []string{"ruff.toml", ".ruff.toml", "pyproject.toml"},
		Package:        "ruff",
		MinVersion:     "0.4.0",
		VersionCommand: []string{"ruff", "--version"},
		DefaultEnabled: true,
		Actions: []ToolAction{
			{
				Name:        "check",
				Command:     argsThenEnv("ruff", "check", "--output-format", "json"),
				AppendFiles: true,
				Parser:      diag.RuffParser,
			},
		},
	})

	reg.Register(ToolDefinition{
		Name:           "eslint",
		Phase:          PhaseLint,
		Runtime:        runtimekind.NPM,
		Languages:      []string{"javascript", "typescript"},
		FileExtensions: []string{".js", ".jsx", ".ts", ".tsx"},
		ConfigFiles:    []string{".eslintrc", ".eslintrc.json", ".eslintrc.js", "eslint.config.js"},
		Package:        "eslint",
		MinVersion:     "8.0.0",
		VersionCommand: []string{"eslint", "--version"},
		DefaultEnabled: true,
		Actions: []ToolAction{
			{
				Name:        "check",
				Command:     argsThenEnv("eslint", "--format", "json"),
				AppendFiles: true,
				Parser:      diag.ESLintParser,
			},
		},
	})

	reg.Register(ToolDefinition{
		Name:           "prettier",
		Phase:          PhaseFormat,
		Runtime:        runtimekind.NPM,
		Languages:      []string{"javascript", "typescript", "markdown", "json", "yaml"},
		FileExtensions: []string{".js", ".jsx", ".ts", ".tsx", ".json", ".yaml", ".yml"},
		ConfigFiles:    []string{".prettierrc", ".prettierrc.json", "prettier.config.js"},
		Package:        "prettier",
		MinVersion:     "3.0.0",
		VersionCommand: []string{"prettier", "--version"},
		DefaultEnabled: true,
		Before:         []string{"eslint"},
		Actions: []ToolAction{
			{
				Name:        "check",
				Command:     argsThenEnv("prettier", "--check"),
				AppendFiles: true,
				Parser:      diag.CheckModeFormatterParser("prettier", "file requires formatting"),
			},
		},
	})

	reg.Register(ToolDefinition{
		Name:           "rustfmt",
		Phase:          PhaseFormat,
		Runtime:        runtimekind.Rust,
		Languages:      []string{"rust"},
		FileExtensions: []string{".rs"},
		Package:        "rustfmt",
		VersionCommand: []string{"rustfmt", "--version"},
		DefaultEnabled: true,
		Actions: []ToolAction{
			{
				Name:        "check",
				Command:     argsThenEnv("rustfmt", "--check", "--files-with-diff"),
				AppendFiles: true,
				Parser:      diag.CheckModeFormatterParser("rustfmt", "file requires formatting"),
			},
		},
	})

	reg.Register(ToolDefinition{
		Name:           "cargo-clippy",
		Phase:          PhaseLint,
		Runtime:        runtimekind.Rust,
		Languages:      []string{"rust"},
		FileExtensions: []string{".rs"},
		ConfigFiles:    []string{"Cargo.toml"},
		Package:        "rustup:clippy",
		VersionCommand: []string{"cargo", "clippy", "--version"},
		After:          []string{"rustfmt"},
		DefaultEnabled: true,
		Actions: []ToolAction{
			{
				Name:        "check",
				Command:     argsThenEnv("cargo", "clippy", "--message-format", "json"),
				AppendFiles: false, // cargo clippy operates on the crate, not a file list
				Parser:      diag.ClippyParser,
			},
		},
	})

	reg.Register(ToolDefinition{
		Name:           "stylua",
		Phase:          PhaseFormat,
		Runtime:        runtimekind.Lua,
		Languages:      []string{"lua"},
		FileExtensions: []string{".lua"},
		ConfigFiles:    []string{"stylua.toml", ".stylua.toml"},
		Package:        "stylua",
		VersionCommand: []string{"stylua", "--version"},
		DefaultEnabled: false,
		Actions: []ToolAction{
			{
				Name:        "check",
				Command:     argsThenEnv("stylua", "--check"),
				AppendFiles: true,
				Parser:      diag.CheckModeFormatterParser("stylua", "file requires formatting"),
			},
		},
	})

	reg.Register(ToolDefinition{
		Name:           "perlcritic",
		Phase:          PhaseLint,
		Runtime:        runtimekind.Perl,
		Languages:      []string{"perl"},
		FileExtensions: []string{".pl", ".pm"},
		ConfigFiles:    []string{".perlcriticrc"},
		Package:        "Perl::Critic",
		VersionCommand: []string{"perlcritic", "--version"},
		DefaultEnabled: false,
		Actions: []ToolAction{
			{
				Name:        "check",
				Command:     argsThenEnv("perlcritic", "--verbose", "1"),
				AppendFiles: true,
				Parser:      diag.PerlCriticParser,
			},
		},
	})

	reg.Register(ToolDefinition{
		Name:           "frontmatter-schema",
		Phase:          PhaseAnalysis,
		Runtime:        runtimekind.Binary,
		FileExtensions: []string{".md", ".markdown"},
		Tags:           []string{"internal-linter"},
		DefaultEnabled: false,
		Actions: []ToolAction{
			{Name: "check", InternalRunner: frontmatterSchemaRunner},
		},
	})

	reg.Register(ToolDefinition{
		Name:           "markdown-structure",
		Phase:          PhaseFormat,
		Runtime:        runtimekind.Binary,
		FileExtensions: []string{".md", ".markdown"},
		Tags:           []string{"internal-pyqa"},
		DefaultEnabled: true,
		Actions: []ToolAction{
			{Name: "check", InternalRunner: markdownStructureRunner},
		},
	})
}

// MustBuiltinRegistry constructs a Registry pre-loaded with every built-in
// tool; it panics on the startup-time errors RegisterBuiltins can raise
// (duplicate names), which would indicate a programming error in this
// package, not a runtime fault.
func MustBuiltinRegistry() *Registry {
	reg := NewRegistry()
	RegisterBuiltins(reg)
	return reg
}

