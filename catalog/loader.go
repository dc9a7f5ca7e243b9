package catalog

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/jrossi/lintorc/diag"
	"github.com/jrossi/lintorc/runtimekind"
)

// catalogFile is the on-disk catalog shape: a flat list of [[tools]]
// tables, each with nested [[tools.actions]] tables.
type catalogFile struct {
	Tools []toolEntry `toml:"tools"`
}

type toolEntry struct {
	Name           string        `toml:"name"`
	Phase          string        `toml:"phase"`
	Runtime        string        `toml:"runtime"`
	Languages      []string      `toml:"languages"`
	FileExtensions []string      `toml:"file_extensions"`
	ConfigFiles    []string      `toml:"config_files"`
	Package        string        `toml:"package"`
	MinVersion     string        `toml:"min_version"`
	VersionCommand []string      `toml:"version_command"`
	Before         []string      `toml:"before"`
	After          []string      `toml:"after"`
	Tags           []string      `toml:"tags"`
	DefaultEnabled bool          `toml:"default_enabled"`
	PreferLocal    bool          `toml:"prefer_local"`
	AutoInstall    bool          `toml:"auto_install"`
	Actions        []actionEntry `toml:"actions"`
}

type actionEntry struct {
	Name           string   `toml:"name"`
	Command        []string `toml:"command"`
	AppendFiles    bool     `toml:"append_files"`
	Parser         string   `toml:"parser"`
	ParserMessage  string   `toml:"parser_message"`
	FilterPatterns []string `toml:"filter_patterns"`
}

// namedParser resolves an action's declared parser name to one of the
// built-in parsers in diag. Data files can only reference parsers this
// distribution ships; tools needing a bespoke parser are registered in
// Go, not TOML.
func namedParser(name, toolName, message string) (diag.Parser, error) {
	switch name {
	case "":
		return nil, nil
	case "golangci-lint":
		return diag.GolangciLintParser, nil
	case "ruff":
		return diag.RuffParser, nil
	case "eslint":
		return diag.ESLintParser, nil
	case "clippy":
		return diag.ClippyParser, nil
	case "perlcritic":
		return diag.PerlCriticParser, nil
	case "check-format":
		if message == "" {
			message = "file requires formatting"
		}
		return diag.CheckModeFormatterParser(toolName, message), nil
	default:
		return nil, fmt.Errorf("unknown parser %q", name)
	}
}

// LoadFile reads a TOML catalog file and registers every tool it defines
// into reg. Unlike Register, which panics on programming errors in the
// compiled-in catalog, a data file is user input: every problem comes
// back as an error naming the offending tool.
func LoadFile(reg *Registry, path string) error {
	var file catalogFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("catalog: parsing %s: %w", path, err)
	}

	for _, entry := range file.Tools {
		def, err := entry.toDefinition()
		if err != nil {
			return fmt.Errorf("catalog: %s: %w", path, err)
		}
		if _, exists := reg.Lookup(def.Name); exists {
			return fmt.Errorf("catalog: %s: tool %q is already registered", path, def.Name)
		}
		reg.Register(def)
	}
	return nil
}

func (e toolEntry) toDefinition() (ToolDefinition, error) {
	if e.Name == "" {
		return ToolDefinition{}, fmt.Errorf("tool with no name")
	}
	kind := runtimekind.Kind(e.Runtime)
	if !kind.Valid() {
		return ToolDefinition{}, fmt.Errorf("tool %q: unknown runtime %q", e.Name, e.Runtime)
	}
	if len(e.Actions) == 0 {
		return ToolDefinition{}, fmt.Errorf("tool %q: no actions", e.Name)
	}

	def := ToolDefinition{
		Name:           e.Name,
		Phase:          Phase(e.Phase),
		Runtime:        kind,
		Languages:      e.Languages,
		FileExtensions: e.FileExtensions,
		ConfigFiles:    e.ConfigFiles,
		Package:        e.Package,
		MinVersion:     e.MinVersion,
		VersionCommand: e.VersionCommand,
		Before:         e.Before,
		After:          e.After,
		Tags:           e.Tags,
		DefaultEnabled: e.DefaultEnabled,
		PreferLocal:    e.PreferLocal,
		AutoInstall:    e.AutoInstall,
	}

	for _, a := range e.Actions {
		if a.Name == "" {
			return ToolDefinition{}, fmt.Errorf("tool %q: action with no name", e.Name)
		}
		if len(a.Command) == 0 {
			return ToolDefinition{}, fmt.Errorf("tool %q action %q: empty command", e.Name, a.Name)
		}
		parser, err := namedParser(a.Parser, e.Name, a.ParserMessage)
		if err != nil {
			return ToolDefinition{}, fmt.Errorf("tool %q action %q: %w", e.Name, a.Name, err)
		}
		def.Actions = append(def.Actions, ToolAction{
			Name:           a.Name,
			Command:        argsThenEnv(a.Command[0], a.Command[1:]...),
			AppendFiles:    a.AppendFiles,
			Parser:         parser,
			FilterPatterns: a.FilterPatterns,
		})
	}
	return def, nil
}
