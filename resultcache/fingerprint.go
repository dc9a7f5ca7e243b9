package resultcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// FileInput is one file the action consumes, identified either by
// stat metadata or, in strict mode, a content hash.
type FileInput struct {
	Path string
	// Strict requests a content hash instead of size/mtime for this file
	// (spec §4.7: "OR a content hash when the config requests strict mode").
	Strict bool
}

// FingerprintInput is everything spec §4.7 says the cache key covers.
type FingerprintInput struct {
	Tool         string
	Action       string
	Argv         []string
	Env          map[string]string
	Files        []FileInput
	ConfigSubset string // caller-serialized subset of config relevant to this tool

	// BinaryPath, when non-empty, is the resolved executable a "system" or
	// "project" PreparedCommand points at. Its size/mtime are folded into
	// the fingerprint (spec §9 open question: a locally reinstalled or
	// upgraded tool binary, same argv and settings, must still invalidate
	// previously cached outcomes). Left empty for "local" provisioning,
	// whose cache slug already changes when the requirement changes.
	BinaryPath string
}

// Fingerprint computes the stable cache key for input. Unreadable files
// fold their path alone into the hash (a missing file is itself part of
// the fingerprint's identity, not a fatal error) rather than aborting
// fingerprint computation.
func Fingerprint(input FingerprintInput) string {
	h := sha256.New()

	fmt.Fprintf(h, "tool=%s\x00action=%s\x00", input.Tool, input.Action)

	for _, a := range input.Argv {
		fmt.Fprintf(h, "argv=%s\x00", a)
	}

	for _, k := range sortedKeys(input.Env) {
		fmt.Fprintf(h, "env=%s=%s\x00", k, input.Env[k])
	}

	files := make([]FileInput, len(input.Files))
	copy(files, input.Files)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	for _, f := range files {
		fmt.Fprintf(h, "file=%s:%s\x00", f.Path, fileSignature(f))
	}

	fmt.Fprintf(h, "config=%s\x00", input.ConfigSubset)

	if input.BinaryPath != "" {
		fmt.Fprintf(h, "binary=%s:%s\x00", input.BinaryPath, binarySignature(input.BinaryPath))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// binarySignature captures a resolved tool binary's size and mtime, the
// same stat-based identity fileSignature uses for input files. A binary
// that no longer stats (reinstalled mid-run, or simply absent) still
// yields a stable "missing" signature rather than aborting the fingerprint.
func binarySignature(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "missing"
	}
	return strconv.FormatInt(info.Size(), 10) + ":" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
}

func fileSignature(f FileInput) string {
	info, err := os.Stat(f.Path)
	if err != nil {
		return "missing"
	}
	if !f.Strict {
		return strconv.FormatInt(info.Size(), 10) + ":" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "missing"
	}
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RenderConfigSubset deterministically serializes a flat key-value subset
// of config into the string Fingerprint hashes, so callers don't need to
// hand-build delimiter-safe strings themselves.
func RenderConfigSubset(kv map[string]string) string {
	parts := make([]string, 0, len(kv))
	for _, k := range sortedKeys(kv) {
		parts = append(parts, k+"="+kv[k])
	}
	return strings.Join(parts, "\x00")
}
