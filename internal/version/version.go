// Package version orders dependency version strings such as "^1.48.8" or
// "1.0.0-beta+build.5". Parsing is lenient: malformed input degrades to an
// all-zero version and never fails.
package version

import (
	"strconv"
	"strings"
)

// Version represents a parsed version identifier.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	PreRelease string
}

// Normalize strips a single leading range operator (^ or ~).
func Normalize(v string) string {
	if strings.HasPrefix(v, "^") || strings.HasPrefix(v, "~") {
		return v[1:]
	}
	return v
}

// Parse splits a version into numeric parts and an optional pre-release tag.
// Build metadata after '+' is discarded. Missing or non-numeric components are 0.
func Parse(v string) Version {
	s := Normalize(v)
	s, _, _ = strings.Cut(s, "+")
	core, pre, _ := strings.Cut(s, "-")

	var nums [3]int
	for i, part := range strings.SplitN(core, ".", 4) {
		if i >= len(nums) {
			break
		}
		nums[i] = atoiOrZero(part)
	}

	return Version{
		Major:      nums[0],
		Minor:      nums[1],
		Patch:      nums[2],
		PreRelease: pre,
	}
}

// Compare returns -1 if a < b, 0 if they are equal, and 1 if a > b.
// A pre-release sorts before the release it precedes; two pre-release tags
// compare lexicographically.
func Compare(a, b string) int {
	return Parse(a).Compare(Parse(b))
}

// Compare compares v with other.
func (v Version) Compare(other Version) int {
	if c := cmpInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmpInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := cmpInt(v.Patch, other.Patch); c != 0 {
		return c
	}

	switch {
	case v.PreRelease != "" && other.PreRelease == "":
		return -1
	case v.PreRelease == "" && other.PreRelease != "":
		return 1
	default:
		return strings.Compare(v.PreRelease, other.PreRelease)
	}
}

// String renders the version as major.minor.patch[-pre].
func (v Version) String() string {
	s := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
	if v.PreRelease != "" {
		s += "-" + v.PreRelease
	}
	return s
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
