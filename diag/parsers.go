package diag

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Parser converts a tool action's captured stdout/stderr into raw
// diagnostics. It must never mutate its inputs.
type Parser func(stdout, stderr []byte) ([]RawDiagnostic, error)

// golangciPos mirrors the "Pos" object inside golangci-lint's JSON output.
type golangciPos struct {
	Filename string `json:"Filename"`
	Line     int    `json:"Line"`
	Column   int    `json:"Column"`
}

// golangciIssue mirrors one entry of golangci-lint's JSON output, the shape
// linters/golang/golang.go's GolangciLintIssue captured for the teacher's
// embedded Go linter.
type golangciIssue struct {
	FromLinter string      `json:"FromLinter"`
	Text       string      `json:"Text"`
	Severity   string      `json:"Severity"`
	Pos        golangciPos `json:"Pos"`
}

type golangciOutput struct {
	Issues []golangciIssue `json:"Issues"`
}

// GolangciLintParser parses `golangci-lint run --out-format json` output.
func GolangciLintParser(stdout, _ []byte) ([]RawDiagnostic, error) {
	if len(strings.TrimSpace(string(stdout))) == 0 {
		return nil, nil
	}

	var out golangciOutput
	if err := json.Unmarshal(stdout, &out); err != nil {
		return nil, err
	}

	raws := make([]RawDiagnostic, 0, len(out.Issues))
	for _, issue := range out.Issues {
		raws = append(raws, RawDiagnostic{
			File:     issue.Pos.Filename,
			Line:     issue.Pos.Line,
			Column:   issue.Pos.Column,
			Severity: issue.Severity,
			Message:  issue.Text,
			Code:     issue.FromLinter,
		})
	}
	return raws, nil
}

// ruffLocation mirrors ruff's JSON "location"/"end_location" objects.
type ruffLocation struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// ruffIssue mirrors one entry of `ruff check --output-format json`, the
// shape linters/python/python.go's RuffIssue captured for the teacher's
// embedded Python linter.
type ruffIssue struct {
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Location *ruffLocation `json:"location"`
}

// RuffParser parses `ruff check --output-format json` output.
func RuffParser(stdout, _ []byte) ([]RawDiagnostic, error) {
	if len(strings.TrimSpace(string(stdout))) == 0 {
		return nil, nil
	}

	var issues []ruffIssue
	if err := json.Unmarshal(stdout, &issues); err != nil {
		return nil, err
	}

	raws := make([]RawDiagnostic, 0, len(issues))
	for _, issue := range issues {
		raw := RawDiagnostic{
			Message: issue.Message,
			Code:    issue.Code,
		}
		if issue.Location != nil {
			raw.Line = issue.Location.Row
			raw.Column = issue.Location.Column
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

// eslintMessage mirrors one entry of an ESLint JSON result's "messages"
// array.
type eslintMessage struct {
	RuleID   string `json:"ruleId"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity int    `json:"severity"` // 1=warn, 2=error
}

type eslintResult struct {
	FilePath string          `json:"filePath"`
	Messages []eslintMessage `json:"messages"`
}

// ESLintParser parses `eslint --format json` output.
func ESLintParser(stdout, _ []byte) ([]RawDiagnostic, error) {
	if len(strings.TrimSpace(string(stdout))) == 0 {
		return nil, nil
	}

	var results []eslintResult
	if err := json.Unmarshal(stdout, &results); err != nil {
		return nil, err
	}

	var raws []RawDiagnostic
	for _, result := range results {
		for _, msg := range result.Messages {
			sev := SeverityWarning
			if msg.Severity >= 2 {
				sev = SeverityError
			}
			raws = append(raws, RawDiagnostic{
				File:     result.FilePath,
				Line:     msg.Line,
				Column:   msg.Column,
				Severity: string(sev),
				Message:  msg.Message,
				Code:     msg.RuleID,
			})
		}
	}
	return raws, nil
}

// ClippyParser parses `cargo clippy --message-format json` output, which is
// a stream of newline-delimited JSON objects; only "compiler-message"
// entries are translated, each located at its primary span.
func ClippyParser(stdout, _ []byte) ([]RawDiagnostic, error) {
	var raws []RawDiagnostic

	for _, line := range strings.Split(string(stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var msg struct {
			Reason  string `json:"reason"`
			Message struct {
				Message string `json:"message"`
				Level   string `json:"level"`
				Code    *struct {
					Code string `json:"code"`
				} `json:"code"`
				Spans []struct {
					FileName    string `json:"file_name"`
					LineStart   int    `json:"line_start"`
					ColumnStart int    `json:"column_start"`
					IsPrimary   bool   `json:"is_primary"`
				} `json:"spans"`
			} `json:"message"`
		}

		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			continue // clippy interleaves non-JSON progress lines on some versions
		}
		if msg.Reason != "compiler-message" {
			continue
		}

		raw := RawDiagnostic{
			Message:  msg.Message.Message,
			Severity: msg.Message.Level,
		}
		if msg.Message.Code != nil {
			raw.Code = msg.Message.Code.Code
		}
		for _, span := range msg.Message.Spans {
			if span.IsPrimary {
				raw.File = span.FileName
				raw.Line = span.LineStart
				raw.Column = span.ColumnStart
				break
			}
		}
		raws = append(raws, raw)
	}

	return raws, nil
}

// perlcriticLine matches perlcritic's "--verbose 1" output: a free-text
// message followed by " at FILE line N, column C.", optionally with a
// trailing policy name in parentheses.
var perlcriticLine = regexp.MustCompile(`^(.*) at (\S+) line (\d+)(?:, column (\d+))?\.(?:\s+\((\S+)\))?$`)

// PerlCriticParser parses perlcritic's default verbose text report.
func PerlCriticParser(stdout, _ []byte) ([]RawDiagnostic, error) {
	var raws []RawDiagnostic

	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "source OK" {
			continue
		}
		m := perlcriticLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		raw := RawDiagnostic{
			Message: m[1],
			File:    m[2],
			Code:    m[5],
		}
		if n, err := strconv.Atoi(m[3]); err == nil {
			raw.Line = n
		}
		if m[4] != "" {
			if n, err := strconv.Atoi(m[4]); err == nil {
				raw.Column = n
			}
		}
		raws = append(raws, raw)
	}
	return raws, scanner.Err()
}

// CheckModeFormatterParser builds one warning-level diagnostic per file that
// a "--check"-style formatter (gofmt -l, stylua --check, prettier --check)
// printed as needing reformatting. Such tools emit one bare path per line
// and carry no line/column information.
func CheckModeFormatterParser(toolName, message string) Parser {
	return func(stdout, _ []byte) ([]RawDiagnostic, error) {
		var raws []RawDiagnostic
		scanner := bufio.NewScanner(bytes.NewReader(stdout))
		for scanner.Scan() {
			path := strings.TrimSpace(scanner.Text())
			path = strings.TrimPrefix(path, "Checking formatting...")
			path = strings.TrimSuffix(path, " Failed")
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			raws = append(raws, RawDiagnostic{
				File:    path,
				Message: message,
				Code:    toolName,
			})
		}
		return raws, scanner.Err()
	}
}
