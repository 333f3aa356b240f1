package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Bump is a semantic version increment
type Bump string

const (
	BumpNone  Bump = ""
	BumpPatch Bump = "patch"
	BumpMinor Bump = "minor"
	BumpMajor Bump = "major"
)

// DefaultSemver is used when no release version exists yet
const DefaultSemver = "0.0.0"

var (
	breakingRe = regexp.MustCompile(`(?i)breaking change`)
	featRe     = regexp.MustCompile(`^feat(\(|:)`)
	patchRe    = regexp.MustCompile(`^(fix|perf|release)(\(|:)`)
)

// ParseBump validates a bump name. The empty string is BumpNone.
func ParseBump(s string) (Bump, error) {
	b := Bump(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case BumpNone, BumpPatch, BumpMinor, BumpMajor:
		return b, nil
	}
	return BumpNone, fmt.Errorf("unknown bump %q, want major, minor or patch", s)
}

// DecideBump maps a conventional commit message to a bump. A non-empty force
// wins. Breaking changes (a "BREAKING CHANGE" anywhere or "!:" in the subject)
// are major, feat is minor, fix, perf and release are patch; anything else
// leaves the version unchanged.
func DecideBump(message string, force Bump) Bump {
	if force != BumpNone {
		return force
	}
	message = strings.TrimSpace(message)
	subject, _, _ := strings.Cut(message, "\n")
	lowered := strings.ToLower(message)

	switch {
	case breakingRe.MatchString(message) || strings.Contains(subject, "!:"):
		return BumpMajor
	case featRe.MatchString(lowered):
		return BumpMinor
	case patchRe.MatchString(lowered):
		return BumpPatch
	}
	return BumpNone
}

// Next applies bump to current. An empty current starts from DefaultSemver;
// a leading "v" and any pre-release suffix are dropped.
func Next(current string, bump Bump) (string, error) {
	if strings.TrimSpace(current) == "" {
		current = DefaultSemver
	}
	v := "v" + strings.TrimPrefix(strings.TrimSpace(current), "v")
	if !semver.IsValid(v) {
		return "", fmt.Errorf("invalid semantic version %q", current)
	}
	core := strings.TrimSuffix(semver.Canonical(v), semver.Prerelease(v))
	fields := strings.Split(strings.TrimPrefix(core, "v"), ".")

	nums := make([]int, 3)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return "", fmt.Errorf("invalid semantic version %q: %w", current, err)
		}
		nums[i] = n
	}

	switch bump {
	case BumpMajor:
		nums = []int{nums[0] + 1, 0, 0}
	case BumpMinor:
		nums = []int{nums[0], nums[1] + 1, 0}
	case BumpPatch:
		nums[2]++
	}
	return fmt.Sprintf("%d.%d.%d", nums[0], nums[1], nums[2]), nil
}
