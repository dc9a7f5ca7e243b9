package resultcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFingerprint_StableForIdenticalInput(t *testing.T) {
	dir := t.TempDir()
	f := writeFixture(t, dir, "a.go", "package a\n")

	input := FingerprintInput{
		Tool: "gofmt", Action: "check",
		Argv:  []string{"gofmt", "-l"},
		Env:   map[string]string{"FOO": "bar"},
		Files: []FileInput{{Path: f}},
	}

	a := Fingerprint(input)
	b := Fingerprint(input)
	if a != b {
		t.Fatalf("fingerprint not stable: %s vs %s", a, b)
	}
}

func TestFingerprint_ChangesWhenFileContentChanges(t *testing.T) {
	dir := t.TempDir()
	f := writeFixture(t, dir, "a.go", "package a\n")

	input := FingerprintInput{Tool: "gofmt", Action: "check", Files: []FileInput{{Path: f, Strict: true}}}
	before := Fingerprint(input)

	time.Sleep(2 * time.Millisecond)
	if err := os.WriteFile(f, []byte("package a\n\nfunc X() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	after := Fingerprint(input)

	if before == after {
		t.Fatalf("expected fingerprint to change when strict-mode file content changes")
	}
}

func TestFingerprint_ChangesWhenMtimeChanges(t *testing.T) {
	dir := t.TempDir()
	f := writeFixture(t, dir, "a.go", "package a\n")

	input := FingerprintInput{Tool: "gofmt", Action: "check", Files: []FileInput{{Path: f}}}
	before := Fingerprint(input)

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(f, later, later); err != nil {
		t.Fatal(err)
	}
	after := Fingerprint(input)

	if before == after {
		t.Fatalf("expected fingerprint to change when mtime changes in non-strict mode")
	}
}

func TestFingerprint_ChangesWhenBinaryMtimeChanges(t *testing.T) {
	dir := t.TempDir()
	bin := writeFixture(t, dir, "golangci-lint", "#!/bin/sh\n")

	input := FingerprintInput{Tool: "golangci-lint", Action: "run", BinaryPath: bin}
	before := Fingerprint(input)

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(bin, later, later); err != nil {
		t.Fatal(err)
	}
	after := Fingerprint(input)

	if before == after {
		t.Fatalf("expected fingerprint to change when the resolved binary's mtime changes")
	}
}

func TestFingerprint_IgnoresBinaryPathWhenEmpty(t *testing.T) {
	in1 := FingerprintInput{Tool: "x", Action: "check"}
	in2 := FingerprintInput{Tool: "x", Action: "check", BinaryPath: ""}

	if Fingerprint(in1) != Fingerprint(in2) {
		t.Fatalf("expected empty BinaryPath to leave the fingerprint unchanged (local provisioning has no binary to stat)")
	}
}

func TestFingerprint_IgnoresFileOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFixture(t, dir, "a.go", "package a\n")
	b := writeFixture(t, dir, "b.go", "package a\n")

	in1 := FingerprintInput{Tool: "gofmt", Files: []FileInput{{Path: a}, {Path: b}}}
	in2 := FingerprintInput{Tool: "gofmt", Files: []FileInput{{Path: b}, {Path: a}}}

	if Fingerprint(in1) != Fingerprint(in2) {
		t.Fatalf("expected fingerprint independent of input file ordering")
	}
}

func TestFingerprint_IgnoresEnvOrder(t *testing.T) {
	in1 := FingerprintInput{Tool: "x", Env: map[string]string{"A": "1", "B": "2"}}
	in2 := FingerprintInput{Tool: "x", Env: map[string]string{"B": "2", "A": "1"}}

	if Fingerprint(in1) != Fingerprint(in2) {
		t.Fatalf("expected fingerprint independent of map iteration order")
	}
}

func TestFingerprint_DiffersByConfigSubset(t *testing.T) {
	in1 := FingerprintInput{Tool: "x", ConfigSubset: "line_length=100"}
	in2 := FingerprintInput{Tool: "x", ConfigSubset: "line_length=120"}

	if Fingerprint(in1) == Fingerprint(in2) {
		t.Fatalf("expected fingerprint to differ by config subset")
	}
}

func TestFingerprint_MissingFileDoesNotPanic(t *testing.T) {
	input := FingerprintInput{Tool: "x", Files: []FileInput{{Path: "/no/such/file-lintorc-test"}}}
	if Fingerprint(input) == "" {
		t.Fatalf("expected a non-empty fingerprint even for a missing file")
	}
}

func TestRenderConfigSubset_Deterministic(t *testing.T) {
	a := RenderConfigSubset(map[string]string{"b": "2", "a": "1"})
	b := RenderConfigSubset(map[string]string{"a": "1", "b": "2"})
	if a != b {
		t.Fatalf("RenderConfigSubset not deterministic: %q vs %q", a, b)
	}
}
