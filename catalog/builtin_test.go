package catalog

import "testing"

func TestMustBuiltinRegistry_RegistersExpectedTools(t *testing.T) {
	reg := MustBuiltinRegistry()

	want := []string{
		"gofmt", "golangci-lint", "ruff", "eslint", "prettier",
		"rustfmt", "cargo-clippy", "stylua", "perlcritic",
		"frontmatter-schema", "markdown-structure",
	}
	for _, name := range want {
		if _, ok := reg.Lookup(name); !ok {
			t.Errorf("builtin registry missing tool %q", name)
		}
	}
}

func TestMustBuiltinRegistry_EveryActionHasCommandOrRunner(t *testing.T) {
	reg := MustBuiltinRegistry()
	for _, def := range reg.All() {
		for _, action := range def.Actions {
			if action.Command == nil && action.InternalRunner == nil {
				t.Errorf("tool %q action %q has neither Command nor InternalRunner", def.Name, action.Name)
			}
		}
	}
}

func TestArgsThenEnv_AppendsConfiguredArgs(t *testing.T) {
	cmd := argsThenEnv("dummy", "--fixed")
	argv := cmd(ToolContext{ToolSettings: ToolSettings{Args: []string{"--flag"}}})

	want := []string{"dummy", "--fixed", "--flag"}
	if len(argv) != len(want) {
		t.Fatalf("argv = %v, want %v", argv, want)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, argv[i], want[i])
		}
	}
}

func TestBuiltinInternalToolTags(t *testing.T) {
	reg := MustBuiltinRegistry()

	fs, _ := reg.Lookup("frontmatter-schema")
	if !fs.HasTag("internal-linter") {
		t.Errorf("frontmatter-schema tags = %v, want internal-linter", fs.Tags)
	}

	// markdown-structure is workspace-scoped: the internal-pyqa tag keeps
	// it from running against arbitrary target repositories by default.
	ms, _ := reg.Lookup("markdown-structure")
	if !ms.HasTag("internal-pyqa") {
		t.Errorf("markdown-structure tags = %v, want internal-pyqa", ms.Tags)
	}
}

func TestGolangciLintDependsAfterGofmt(t *testing.T) {
	reg := MustBuiltinRegistry()
	def, ok := reg.Lookup("golangci-lint")
	if !ok {
		t.Fatal("golangci-lint not registered")
	}
	found := false
	for _, after := range def.After {
		if after == "gofmt" {
			found = true
		}
	}
	if !found {
		t.Error("golangci-lint.After does not include gofmt")
	}
}
