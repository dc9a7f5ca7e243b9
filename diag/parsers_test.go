package diag

import "testing"

func TestGolangciLintParser(t *testing.T) {
	stdout := []byte(`{
		"Issues": [
			{"FromLinter":"errcheck","Text":"Error return value not checked","Severity":"error","Pos":{"Filename":"main.go","Line":10,"Column":2}},
			{"FromLinter":"ineffassign","Text":"ineffectual assignment","Severity":"warning","Pos":{"Filename":"util.go","Line":5,"Column":1}}
		]
	}`)

	raws, err := GolangciLintParser(stdout, nil)
	if err != nil {
		t.Fatalf("GolangciLintParser() error = %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("got %d raw diagnostics, want 2", len(raws))
	}
	if raws[0].File != "main.go" || raws[0].Line != 10 || raws[0].Column != 2 {
		t.Errorf("raws[0] = %+v, want file main.go:10:2", raws[0])
	}
	if raws[0].Code != "errcheck" {
		t.Errorf("raws[0].Code = %q, want errcheck", raws[0].Code)
	}
}

func TestGolangciLintParser_Empty(t *testing.T) {
	raws, err := GolangciLintParser([]byte(""), nil)
	if err != nil {
		t.Fatalf("GolangciLintParser() error = %v", err)
	}
	if raws != nil {
		t.Errorf("got %v, want nil", raws)
	}
}

func TestRuffParser(t *testing.T) {
	stdout := []byte(`[
		{"code":"E501","message":"line too long","location":{"row":3,"column":89}},
		{"code":"D100","message":"missing docstring","location":{"row":1,"column":1}}
	]`)

	raws, err := RuffParser(stdout, nil)
	if err != nil {
		t.Fatalf("RuffParser() error = %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("got %d raw diagnostics, want 2", len(raws))
	}
	if raws[0].Code != "E501" || raws[0].Line != 3 || raws[0].Column != 89 {
		t.Errorf("raws[0] = %+v", raws[0])
	}
}

func TestESLintParser(t *testing.T) {
	stdout := []byte(`[
		{"filePath":"src/app.js","messages":[
			{"ruleId":"no-unused-vars","message":"'x' is defined but never used","line":4,"column":7,"severity":2},
			{"ruleId":"no-console","message":"Unexpected console statement","line":9,"column":1,"severity":1}
		]}
	]`)

	raws, err := ESLintParser(stdout, nil)
	if err != nil {
		t.Fatalf("ESLintParser() error = %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("got %d raw diagnostics, want 2", len(raws))
	}
	if raws[0].Severity != string(SeverityError) {
		t.Errorf("raws[0].Severity = %q, want error", raws[0].Severity)
	}
	if raws[1].Severity != string(SeverityWarning) {
		t.Errorf("raws[1].Severity = %q, want warning", raws[1].Severity)
	}
}

func TestClippyParser(t *testing.T) {
	stdout := []byte(`{"reason":"compiler-artifact"}
{"reason":"compiler-message","message":{"message":"unused variable: ` + "`x`" + `","level":"warning","code":{"code":"unused_variables"},"spans":[{"file_name":"src/main.rs","line_start":3,"column_start":9,"is_primary":true}]}}
`)

	raws, err := ClippyParser(stdout, nil)
	if err != nil {
		t.Fatalf("ClippyParser() error = %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("got %d raw diagnostics, want 1", len(raws))
	}
	if raws[0].File != "src/main.rs" || raws[0].Line != 3 || raws[0].Column != 9 {
		t.Errorf("raws[0] = %+v", raws[0])
	}
	if raws[0].Code != "unused_variables" {
		t.Errorf("raws[0].Code = %q", raws[0].Code)
	}
}

func TestPerlCriticParser(t *testing.T) {
	stdout := []byte("Variables::ProhibitPunctuationVars at lib/Foo.pm line 12, column 4. (Variables::ProhibitPunctuationVars)\nsource OK\n")

	raws, err := PerlCriticParser(stdout, nil)
	if err != nil {
		t.Fatalf("PerlCriticParser() error = %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("got %d raw diagnostics, want 1", len(raws))
	}
	if raws[0].File != "lib/Foo.pm" || raws[0].Line != 12 || raws[0].Column != 4 {
		t.Errorf("raws[0] = %+v", raws[0])
	}
}

func TestCheckModeFormatterParser(t *testing.T) {
	parse := CheckModeFormatterParser("gofmt", "file is not gofmt-formatted")
	stdout := []byte("pkg/foo.go\npkg/bar.go\n")

	raws, err := parse(stdout, nil)
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("got %d raw diagnostics, want 2", len(raws))
	}
	if raws[0].File != "pkg/foo.go" || raws[0].Code != "gofmt" {
		t.Errorf("raws[0] = %+v", raws[0])
	}
}
