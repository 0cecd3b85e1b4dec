package version

import (
	"slices"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"^1.2.3", "1.2.3"},
		{"~1.2.3", "1.2.3"},
		{"1.2.3", "1.2.3"},
		{"^^1.0.0", "^1.0.0"},
		{">=1.0.0", ">=1.0.0"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Version
	}{
		{"full", "1.48.8", Version{Major: 1, Minor: 48, Patch: 8}},
		{"caret", "^1.48.8", Version{Major: 1, Minor: 48, Patch: 8}},
		{"missing patch", "1.2", Version{Major: 1, Minor: 2}},
		{"major only", "3", Version{Major: 3}},
		{"pre-release", "1.0.0-beta.2", Version{Major: 1, PreRelease: "beta.2"}},
		{"build metadata dropped", "1.0.0+20240101", Version{Major: 1}},
		{"pre-release and build", "2.1.0-rc.1+sha.abc", Version{Major: 2, Minor: 1, PreRelease: "rc.1"}},
		{"non-numeric segment", "1.x.3", Version{Major: 1, Patch: 3}},
		{"garbage", "latest", Version{}},
		{"empty", "", Version{}},
		{"extra segments ignored", "1.2.3.4", Version{Major: 1, Minor: 2, Patch: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.input); got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2.0.0", "1.9.9", 1},
		{"1.9.9", "2.0.0", -1},
		{"1.0.0-beta", "1.0.0", -1},
		{"1.0.0", "1.0.0-beta", 1},
		{"1.2", "1.2.0", 0},
		{"^1.2.0", "1.2.0", 0},
		{"1.0.0-alpha", "1.0.0-beta", -1},
		{"1.0.0-rc.1", "1.0.0-rc.1", 0},
		{"1.10.0", "1.9.0", 1},
		{"1.0.0+build.1", "1.0.0+build.2", 0},
		{"nonsense", "0.0.0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompare_SortsDescending(t *testing.T) {
	versions := []string{"1.48.8", "^1.50.0", "1.50.0-beta", "1.9.0", "~1.49.2"}
	slices.SortFunc(versions, func(a, b string) int { return Compare(b, a) })

	want := []string{"^1.50.0", "1.50.0-beta", "~1.49.2", "1.48.8", "1.9.0"}
	if !slices.Equal(versions, want) {
		t.Errorf("sorted = %v, want %v", versions, want)
	}
}

func TestVersion_String(t *testing.T) {
	if got := Parse("^1.2-rc.1").String(); got != "1.2.0-rc.1" {
		t.Errorf("String() = %q, want %q", got, "1.2.0-rc.1")
	}
}
