package diag

import "testing"

func TestSeverity_Valid(t *testing.T) {
	for _, sev := range []Severity{SeverityError, SeverityWarning, SeverityNotice, SeverityNote} {
		if !sev.Valid() {
			t.Errorf("%q.Valid() = false, want true", sev)
		}
	}
	if Severity("critical").Valid() {
		t.Error(`Severity("critical").Valid() = true, want false`)
	}
}

func TestToolOutcome_HasFailure(t *testing.T) {
	tests := []struct {
		cat  ExitCategory
		want bool
	}{
		{ExitSuccess, false},
		{ExitSkipped, false},
		{ExitDiagnostic, true},
		{ExitToolFailure, true},
		{ExitTimeout, true},
	}
	for _, tt := range tests {
		o := ToolOutcome{ExitCategory: tt.cat}
		if got := o.HasFailure(); got != tt.want {
			t.Errorf("ToolOutcome{ExitCategory: %v}.HasFailure() = %v, want %v", tt.cat, got, tt.want)
		}
	}
}

func TestRunResult_HasFailuresAndDiagnostics(t *testing.T) {
	clean := RunResult{Outcomes: []ToolOutcome{{ExitCategory: ExitSuccess}}}
	if clean.HasFailures() {
		t.Error("HasFailures() = true for all-success run")
	}
	if clean.HasDiagnostics() {
		t.Error("HasDiagnostics() = true for run with no diagnostics")
	}

	dirty := RunResult{Outcomes: []ToolOutcome{
		{ExitCategory: ExitSuccess},
		{ExitCategory: ExitDiagnostic, Diagnostics: []Diagnostic{{Message: "x"}}},
	}}
	if !dirty.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}
	if !dirty.HasDiagnostics() {
		t.Error("HasDiagnostics() = false, want true")
	}
}

func TestDiagnostic_DedupeKeyDistinguishesLocation(t *testing.T) {
	a := Diagnostic{Tool: "ruff", File: "a.py", Line: 1, Column: 1, Code: "E501", Message: "m"}
	b := Diagnostic{Tool: "ruff", File: "a.py", Line: 2, Column: 1, Code: "E501", Message: "m"}
	if a.dedupeKey() == b.dedupeKey() {
		t.Error("dedupeKey() collided for diagnostics at different lines")
	}
}
