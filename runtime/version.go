package runtime

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// versionPattern extracts the first dotted-number run from a version
// command's output, e.g. "golangci-lint has version 1.62.0 built..." -> "1.62.0".
var versionPattern = regexp.MustCompile(`\d+(\.\d+)+`)

// CaptureVersion runs versionCommand and extracts a version string from
// its first output line. An empty result (not an error) means no version
// could be determined -- spec §4.4: "a malformed version is treated as
// incompatible (but never raises)".
func CaptureVersion(ctx context.Context, versionCommand []string) string {
	if len(versionCommand) == 0 {
		return ""
	}

	cmd := exec.CommandContext(ctx, versionCommand[0], versionCommand[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return ""
	}

	firstLine := strings.SplitN(string(out), "\n", 2)[0]
	return versionPattern.FindString(firstLine)
}

// version is a parsed PEP-440-lite dotted version: a sequence of
// non-negative integer components compared lexicographically, shorter
// missing components treated as zero.
type version []int

func parseVersion(s string) (version, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	parts := strings.Split(s, ".")
	v := make(version, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		v = append(v, n)
	}
	return v, true
}

// compare returns -1, 0, or 1 for a relative to b.
func (a version) compare(b version) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// VersionCompatible reports whether actual satisfies minVersion. A
// malformed actual or minVersion is treated as incompatible, never an
// error (spec §4.4, §9: "prevents a flaky --version output from breaking
// the build"). An empty minVersion imposes no constraint.
func VersionCompatible(actual, minVersion string) bool {
	if minVersion == "" {
		return true
	}
	a, ok := parseVersion(actual)
	if !ok {
		return false
	}
	m, ok := parseVersion(minVersion)
	if !ok {
		return false
	}
	return a.compare(m) >= 0
}
