package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Marker names looked for inside each package directory.
const (
	swiftDirName     = "swift"
	swiftPackageFile = "Package.swift"
	changelogFile    = "CHANGELOG.md"
)

// Entry describes one immediate subdirectory of the corpus root.
type Entry struct {
	// Dir is the subdirectory name.
	Dir string

	// ManifestPath is the manifest file path, empty when the directory has none.
	ManifestPath string

	// ChangelogPath is the changelog path, empty when the directory has none.
	ChangelogPath string

	// Swift is set when the directory has a swift/ subdirectory or a Package.swift file.
	Swift bool
}

// Corpus is the result of scanning the corpus root.
type Corpus struct {
	Root string

	// Entries are sorted by directory name.
	Entries []Entry
}

// Manifests returns the entries that carry a manifest file, in discovery order.
func (c *Corpus) Manifests() []Entry {
	out := make([]Entry, 0, len(c.Entries))
	for _, e := range c.Entries {
		if e.ManifestPath != "" {
			out = append(out, e)
		}
	}
	return out
}

// SwiftPackages returns the set of directory names that carry Swift sources.
func (c *Corpus) SwiftPackages() map[string]bool {
	set := make(map[string]bool)
	for _, e := range c.Entries {
		if e.Swift {
			set[e.Dir] = true
		}
	}
	return set
}

// Discover lists the immediate subdirectories of root and records which marker
// files each one carries. Nested directories are not descended into.
func Discover(root string) (*Corpus, error) {
	dirents, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read corpus root: %w", err)
	}

	corpus := &Corpus{Root: root}
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		entry, err := inspect(root, d.Name())
		if err != nil {
			return nil, err
		}
		corpus.Entries = append(corpus.Entries, entry)
	}

	sort.Slice(corpus.Entries, func(i, j int) bool {
		return corpus.Entries[i].Dir < corpus.Entries[j].Dir
	})

	return corpus, nil
}

// inspect checks a single package directory for its marker files.
func inspect(root, name string) (Entry, error) {
	dir := filepath.Join(root, name)
	children, err := os.ReadDir(dir)
	if err != nil {
		return Entry{}, fmt.Errorf("read package directory %s: %w", dir, err)
	}

	entry := Entry{Dir: name}
	for _, c := range children {
		switch {
		case c.IsDir() && c.Name() == swiftDirName:
			entry.Swift = true
		case !c.IsDir() && c.Name() == swiftPackageFile:
			entry.Swift = true
		case !c.IsDir() && c.Name() == FileName:
			entry.ManifestPath = filepath.Join(dir, FileName)
		case !c.IsDir() && c.Name() == changelogFile:
			entry.ChangelogPath = filepath.Join(dir, changelogFile)
		}
	}
	return entry, nil
}
