// Package stats folds normalized manifests into a corpus snapshot and renders
// the statistics block embedded in the document.
package stats

import (
	"slices"
	"sort"

	"github.com/hpungsan/curate/internal/manifest"
	"github.com/hpungsan/curate/internal/version"
)

// Uncategorized is the bucket for manifests that list no category.
const Uncategorized = "Uncategorized"

// Platforms holds the independent platform tallies. They are not a partition.
type Platforms struct {
	NoPlatformSelected int `json:"noPlatformSelected"`
	MacOnly            int `json:"macOnly"`
	WithWindows        int `json:"withWindows"`
	WindowsOnly        int `json:"windowsOnly"`
}

// Commands holds command descriptor counts.
type Commands struct {
	Total  int                          `json:"total"`
	ByMode map[manifest.CommandMode]int `json:"byMode"`

	// Unknown counts descriptors whose mode is outside the fixed enumeration.
	// They are included in Total.
	Unknown int `json:"unknown"`
}

// VersionBucket lists the packages pinned to one exact API version string.
type VersionBucket struct {
	Version  string   `json:"version"`
	Packages []string `json:"packages"`
}

// Snapshot is the aggregation result for one run.
type Snapshot struct {
	// Groups maps a category (or Uncategorized) to its manifests in input order.
	Groups map[string][]manifest.Normalized

	// Categories is the sorted set of real categories observed.
	Categories []string

	Authors      map[string]int
	Contributors map[string]int
	Platforms    Platforms
	Commands     Commands

	// AIToolCount is the number of manifests declaring at least one tool.
	AIToolCount int

	// APIVersions is sorted newest first.
	APIVersions []VersionBucket

	// Packages and SwiftCount are the totals over the folded input.
	Packages   int
	SwiftCount int
}

// accumulator is the fold state. It never escapes Aggregate.
type accumulator struct {
	groups       map[string][]manifest.Normalized
	categories   map[string]struct{}
	authors      map[string]int
	contributors map[string]int
	platforms    Platforms
	commands     Commands
	aiTools      int
	versions     map[string][]string
	packages     int
	swift        int
}

func newAccumulator() *accumulator {
	byMode := make(map[manifest.CommandMode]int, len(manifest.CommandModes))
	for _, m := range manifest.CommandModes {
		byMode[m] = 0
	}
	return &accumulator{
		groups:       make(map[string][]manifest.Normalized),
		categories:   make(map[string]struct{}),
		authors:      make(map[string]int),
		contributors: make(map[string]int),
		commands:     Commands{ByMode: byMode},
		versions:     make(map[string][]string),
	}
}

// Aggregate folds pkgs, in the given order, into a Snapshot.
// The same input in the same order always yields the same Snapshot.
func Aggregate(pkgs []manifest.Normalized) Snapshot {
	acc := newAccumulator()
	for _, p := range pkgs {
		acc = acc.add(p)
	}
	return acc.snapshot()
}

func (a *accumulator) add(p manifest.Normalized) *accumulator {
	a.packages++
	if p.Swift {
		a.swift++
	}

	bucket := Uncategorized
	if p.Category != "" {
		bucket = p.Category
		a.categories[p.Category] = struct{}{}
	}
	a.groups[bucket] = append(a.groups[bucket], p)

	a.authors[p.Author]++
	for _, c := range p.Contributors {
		a.contributors[c]++
	}

	if !p.PlatformsDeclared() {
		a.platforms.NoPlatformSelected++
	} else {
		win := slices.Contains(p.Platforms, manifest.PlatformWindows)
		mac := slices.Contains(p.Platforms, manifest.PlatformMacOS)
		if win {
			a.platforms.WithWindows++
		}
		if win && !mac {
			a.platforms.WindowsOnly++
		}
		if mac && !win {
			a.platforms.MacOnly++
		}
	}

	for _, cmd := range p.Commands {
		a.commands.Total++
		if cmd.Mode.Known() {
			a.commands.ByMode[cmd.Mode]++
		} else {
			a.commands.Unknown++
		}
	}

	if p.HasTools() {
		a.aiTools++
	}

	if p.APIVersion != nil {
		a.versions[*p.APIVersion] = append(a.versions[*p.APIVersion], p.Name)
	}

	return a
}

func (a *accumulator) snapshot() Snapshot {
	categories := make([]string, 0, len(a.categories))
	for c := range a.categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	return Snapshot{
		Groups:       a.groups,
		Categories:   categories,
		Authors:      a.authors,
		Contributors: a.contributors,
		Platforms:    a.platforms,
		Commands:     a.commands,
		AIToolCount:  a.aiTools,
		APIVersions:  histogram(a.versions),
		Packages:     a.packages,
		SwiftCount:   a.swift,
	}
}

// histogram sorts each bucket's names ascending and the buckets newest first.
// Versions that compare equal (such as "^1.2.0" and "1.2.0") are ordered by
// their literal string.
func histogram(versions map[string][]string) []VersionBucket {
	out := make([]VersionBucket, 0, len(versions))
	for v, names := range versions {
		sorted := slices.Clone(names)
		sort.Strings(sorted)
		out = append(out, VersionBucket{Version: v, Packages: sorted})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := version.Compare(out[i].Version, out[j].Version); c != 0 {
			return c > 0
		}
		return out[i].Version < out[j].Version
	})
	return out
}

// SortedCategories returns the render order: real categories alphabetically,
// then Uncategorized when that bucket is non-empty.
func (s Snapshot) SortedCategories() []string {
	out := make([]string, 0, len(s.Categories)+1)
	for _, c := range s.Categories {
		if c != Uncategorized {
			out = append(out, c)
		}
	}
	if len(s.Groups[Uncategorized]) > 0 {
		out = append(out, Uncategorized)
	}
	return out
}

// OnlyContributors returns, sorted, the contributors that never appear as an author.
func (s Snapshot) OnlyContributors() []string {
	var out []string
	for c := range s.Contributors {
		if _, ok := s.Authors[c]; !ok {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
