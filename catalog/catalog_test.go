package catalog

import (
	"testing"

	"github.com/jrossi/lintorc/runtimekind"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(ToolDefinition{Name: "gofmt", Phase: PhaseFormat, Runtime: runtimekind.Go})

	def, ok := r.Lookup("gofmt")
	if !ok {
		t.Fatal("Lookup(\"gofmt\") ok = false, want true")
	}
	if def.Phase != PhaseFormat {
		t.Errorf("Phase = %v, want %v", def.Phase, PhaseFormat)
	}

	if _, ok := r.Lookup("nope"); ok {
		t.Error("Lookup(\"nope\") ok = true, want false")
	}
}

func TestRegistry_DuplicateNamePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(ToolDefinition{Name: "gofmt"})

	defer func() {
		if recover() == nil {
			t.Error("Register() with duplicate name did not panic")
		}
	}()
	r.Register(ToolDefinition{Name: "gofmt"})
}

func TestRegistry_InsertionOrderPreserved(t *testing.T) {
	r := NewRegistry()
	names := []string{"c-tool", "a-tool", "b-tool"}
	for _, n := range names {
		r.Register(ToolDefinition{Name: n})
	}

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("All() returned %d tools, want 3", len(all))
	}
	for i, n := range names {
		if all[i].Name != n {
			t.Errorf("All()[%d].Name = %q, want %q", i, all[i].Name, n)
		}
		if r.InsertionIndex(n) != i {
			t.Errorf("InsertionIndex(%q) = %d, want %d", n, r.InsertionIndex(n), i)
		}
	}
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(ToolDefinition{Name: "zeta"})
	r.Register(ToolDefinition{Name: "alpha"})

	names := r.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("Names() = %v, want [alpha zeta]", names)
	}
}

func TestComparePhases(t *testing.T) {
	if ComparePhases(PhaseFormat, PhaseLint) >= 0 {
		t.Error("format should sort before lint")
	}
	if ComparePhases(PhaseLint, PhaseAnalysis) >= 0 {
		t.Error("lint should sort before analysis")
	}
	if ComparePhases(PhaseAnalysis, PhaseUtility) >= 0 {
		t.Error("analysis should sort before utility")
	}
	if ComparePhases(PhaseUtility, Phase("zzz-custom")) >= 0 {
		t.Error("known phase should sort before unknown phase")
	}
	if ComparePhases(Phase("alpha"), Phase("beta")) >= 0 {
		t.Error("unknown phases should sort alphabetically among themselves")
	}
}

func TestToolDefinition_HasTagAndAction(t *testing.T) {
	def := ToolDefinition{
		Tags: []string{"internal-linter"},
		Actions: []ToolAction{
			{Name: "check"},
			{Name: "fix"},
		},
	}

	if !def.HasTag("internal-linter") {
		t.Error("HasTag(\"internal-linter\") = false, want true")
	}
	if def.HasTag("internal-pyqa") {
		t.Error("HasTag(\"internal-pyqa\") = true, want false")
	}

	if _, ok := def.Action("check"); !ok {
		t.Error("Action(\"check\") ok = false, want true")
	}
	if _, ok := def.Action("missing"); ok {
		t.Error("Action(\"missing\") ok = true, want false")
	}
}
