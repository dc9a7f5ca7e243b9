package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonschema"
	markdown "github.com/teekennedy/goldmark-markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"

	"github.com/jrossi/lintorc/diag"
)

// markdownParser is shared across both internal markdown tools: goldmark
// construction is cheap to reuse but not free, and front matter extraction
// needs the same extender every file is parsed with.
var markdownParser = goldmark.New(
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithExtensions(&frontmatter.Extender{}),
)

// schemaCache memoizes compiled JSON schemas by source path so repeated
// runs against the same repository don't recompile on every file.
type schemaCache struct {
	mu      sync.Mutex
	schemas map[string]*jsonschema.Schema
}

var frontmatterSchemas = &schemaCache{schemas: make(map[string]*jsonschema.Schema)}

func (c *schemaCache) get(path string) (*jsonschema.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.schemas[path]; ok {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frontmatter schema %s: %w", path, err)
	}
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("compile frontmatter schema %s: %w", path, err)
	}
	c.schemas[path] = schema
	return schema, nil
}

// frontmatterSchemaRunner validates each markdown file's YAML/TOML front
// matter against a JSON schema named by ToolSettings.Args[0].
func frontmatterSchemaRunner(ctx ToolContext) (diag.ToolOutcome, error) {
	outcome := diag.ToolOutcome{Tool: "frontmatter-schema", Action: "check"}

	if len(ctx.ToolSettings.Args) == 0 {
		outcome.ExitCategory = diag.ExitSkipped
		return outcome, nil
	}
	schemaPath := ctx.ToolSettings.Args[0]
	if !filepath.IsAbs(schemaPath) {
		schemaPath = filepath.Join(ctx.Root, schemaPath)
	}
	schema, err := frontmatterSchemas.get(schemaPath)
	if err != nil {
		outcome.ExitCategory = diag.ExitToolFailure
		outcome.Stderr = []string{err.Error()}
		return outcome, nil
	}

	var raws []diag.RawDiagnostic
	for _, file := range ctx.Files {
		if !strings.HasSuffix(file, ".md") && !strings.HasSuffix(file, ".markdown") {
			continue
		}
		content, err := os.ReadFile(file)
		if err != nil {
			raws = append(raws, diag.RawDiagnostic{File: file, Severity: "error", Message: err.Error(), Code: "read-error"})
			continue
		}

		pctx := parser.NewContext()
		markdownParser.Parser().Parse(text.NewReader(content), parser.WithContext(pctx))

		fm := frontmatter.Get(pctx)
		if fm == nil {
			raws = append(raws, diag.RawDiagnostic{
				File: file, Line: 1, Severity: "error",
				Message: "front matter is required but not present", Code: "require-frontmatter",
			})
			continue
		}

		var data interface{}
		if err := fm.Decode(&data); err != nil {
			raws = append(raws, diag.RawDiagnostic{
				File: file, Line: 1, Severity: "error",
				Message: fmt.Sprintf("front matter could not be decoded: %v", err), Code: "frontmatter-decode",
			})
			continue
		}

		if result := schema.Validate(data); !result.IsValid() {
			raws = append(raws, diag.RawDiagnostic{
				File: file, Line: 1, Severity: "error",
				Message: fmt.Sprintf("front matter schema validation failed: %v", result.Errors), Code: "schema",
			})
		}
	}

	outcome.Diagnostics = diag.NewNormalizer(ctx.Root).Normalize("frontmatter-schema", raws)
	if len(outcome.Diagnostics) > 0 {
		outcome.ExitCategory = diag.ExitDiagnostic
	} else {
		outcome.ExitCategory = diag.ExitSuccess
	}
	return outcome, nil
}

// markdownStructureRunner re-renders each markdown file through goldmark's
// markdown renderer and flags files whose canonical rendering differs from
// the file on disk -- the same "format drift" signal the teacher's
// MarkdownLinter produces by diffing against its own renderer output.
func markdownStructureRunner(ctx ToolContext) (diag.ToolOutcome, error) {
	outcome := diag.ToolOutcome{Tool: "markdown-structure", Action: "check"}

	var raws []diag.RawDiagnostic
	for _, file := range ctx.Files {
		if !strings.HasSuffix(file, ".md") && !strings.HasSuffix(file, ".markdown") {
			continue
		}
		content, err := os.ReadFile(file)
		if err != nil {
			raws = append(raws, diag.RawDiagnostic{File: file, Severity: "error", Message: err.Error(), Code: "read-error"})
			continue
		}

		doc := markdownParser.Parser().Parse(text.NewReader(content))

		var rendered bytes.Buffer
		if err := markdown.NewRenderer().Render(&rendered, content, doc); err != nil {
			raws = append(raws, diag.RawDiagnostic{
				File: file, Line: 1, Severity: "error",
				Message: fmt.Sprintf("failed to render markdown: %v", err), Code: "render-error",
			})
			continue
		}

		if !bytes.Equal(content, rendered.Bytes()) {
			raws = append(raws, diag.RawDiagnostic{
				File: file, Line: 1, Severity: "warning",
				Message: "file requires formatting to meet canonical markdown style", Code: "formatting",
			})
		}
	}

	outcome.Diagnostics = diag.NewNormalizer(ctx.Root).Normalize("markdown-structure", raws)
	if len(outcome.Diagnostics) > 0 {
		outcome.ExitCategory = diag.ExitDiagnostic
	} else {
		outcome.ExitCategory = diag.ExitSuccess
	}
	return outcome, nil
}
