// Package document renders the curated list and splices generated content into
// marker-delimited regions of an existing document.
package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hpungsan/curate/internal/manifest"
)

// Defaults for link construction.
const (
	DefaultStoreURL  = "https://raycast.com"
	DefaultRepoURL   = "https://github.com/raycast/extensions"
	DefaultTopAnchor = "awesome-raycast"
)

// Entry is the persisted per-package record of the data snapshot.
type Entry struct {
	Name         string            `json:"name"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Author       string            `json:"author"`
	Contributors []string          `json:"contributors"`
	API          *string           `json:"api"`
	Utils        *string           `json:"utils"`
	Swift        bool              `json:"swift,omitempty"`
	HasAI        bool              `json:"hasAi"`
	HasTools     bool              `json:"hasTools"`
	Win          bool              `json:"win"`
	Mac          bool              `json:"mac"`
	Deps         map[string]string `json:"deps"`
	DevDeps      map[string]string `json:"dev_deps,omitempty"`
	Updated      string            `json:"updated,omitempty"`

	// Category and Path are carried for the catalog mirror only.
	Category string `json:"-"`
	Path     string `json:"-"`
}

// NewEntry converts a normalized manifest into its persisted record.
func NewEntry(n manifest.Normalized, category string) Entry {
	contributors := n.Contributors
	if contributors == nil {
		contributors = []string{}
	}

	deps := make(map[string]string, len(n.Dependencies))
	for k, v := range n.Dependencies {
		if k == manifest.APIDependency || k == manifest.UtilsDependency {
			continue
		}
		deps[k] = v
	}

	return Entry{
		Name:         n.Name,
		Title:        n.Title,
		Description:  n.Description,
		Author:       n.Author,
		Contributors: contributors,
		API:          n.APIVersion,
		Utils:        n.UtilsVersion,
		Swift:        n.Swift,
		HasAI:        n.HasAI(),
		HasTools:     n.HasTools(),
		Win:          n.SupportsWindows(),
		Mac:          n.SupportsMac(),
		Deps:         deps,
		DevDeps:      n.DevDependencies,
		Updated:      n.Updated,
		Category:     category,
		Path:         n.Path,
	}
}

// SortByName orders entries by name, byte-wise ascending.
func SortByName(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
}

// Options controls link targets in rendered output.
type Options struct {
	StoreURL  string
	RepoURL   string
	TopAnchor string
}

func (o Options) withDefaults() Options {
	o.StoreURL = strings.TrimRight(o.StoreURL, "/")
	o.RepoURL = strings.TrimRight(o.RepoURL, "/")
	o.TopAnchor = strings.TrimPrefix(o.TopAnchor, "#")
	if o.StoreURL == "" {
		o.StoreURL = DefaultStoreURL
	}
	if o.RepoURL == "" {
		o.RepoURL = DefaultRepoURL
	}
	if o.TopAnchor == "" {
		o.TopAnchor = DefaultTopAnchor
	}
	return o
}

// Output is what Render produces.
type Output struct {
	Sections        string
	TableOfContents string

	// Entries are in render order: category-major, title-minor.
	Entries []Entry
}

// Render builds section text, the table of contents and one Entry per manifest.
// Categories are visited in the order given; a category without manifests still
// gets a table-of-contents line but no section.
func Render(groups map[string][]manifest.Normalized, categories []string, opts Options) Output {
	opts = opts.withDefaults()

	var sections strings.Builder
	toc := "- [Statistics](#statistics)\n- [Categories](#categories)"
	var entries []Entry

	for i, category := range categories {
		toc += fmt.Sprintf("\n  - [%s](#%s)", category, Anchor(category))

		pkgs := groups[category]
		if len(pkgs) == 0 {
			continue
		}

		sorted := make([]manifest.Normalized, len(pkgs))
		copy(sorted, pkgs)
		sort.SliceStable(sorted, func(a, b int) bool {
			return sorted[a].Title < sorted[b].Title
		})

		if i != 0 {
			sections.WriteString("\n\n--------------------\n\n## " + category + "\n\n")
		} else {
			sections.WriteString("### " + category + "\n\n")
		}
		sections.WriteString("**[`^        back to top        ^`](#" + opts.TopAnchor + ")**\n\n")

		for _, p := range sorted {
			e := NewEntry(p, category)
			entries = append(entries, e)
			sections.WriteString(line(p, e, opts))
			sections.WriteString("\n")
		}
	}

	return Output{
		Sections:        sections.String(),
		TableOfContents: toc,
		Entries:         entries,
	}
}

// Anchor slugifies a heading the way the document host does for categories.
func Anchor(heading string) string {
	return strings.ReplaceAll(strings.ToLower(heading), " ", "-")
}

func line(p manifest.Normalized, e Entry, opts Options) string {
	label := `"extension:+` + p.Name + `"`
	issues := EncodeURI(opts.RepoURL + "/issues?q=sort:updated-desc+state:open+label:" + label)
	pulls := EncodeURI(opts.RepoURL + "/pulls?q=sort:updated-desc+is:pr+is:open+label:" + label)

	parts := []string{
		fmt.Sprintf("- **[%s](%s/%s/%s)**", p.Title, opts.StoreURL, p.Author, p.Name),
		"- " + strings.TrimSpace(strings.ReplaceAll(p.Description, "\n", " ")),
		fmt.Sprintf("[`@%s`](%s/%s)", p.Author, opts.StoreURL, p.Author),
		fmt.Sprintf("[`issues`](%s)/[`PR`](%s)", issues, pulls),
		fmt.Sprintf("[`code`](%s/tree/main/extensions%s)", opts.RepoURL, p.Path),
	}
	if p.APIVersion != nil {
		parts = append(parts, "`api@"+*p.APIVersion+"`")
	}
	if p.UtilsVersion != nil {
		parts = append(parts, "`utils@"+*p.UtilsVersion+"`")
	}
	if e.Swift {
		parts = append(parts, "`swift`")
	}
	if e.HasAI {
		parts = append(parts, "`ai`")
	}
	if e.HasTools {
		parts = append(parts, "`ai-tools`")
	}
	switch {
	case e.Win && !e.Mac:
		parts = append(parts, "`Windows only`")
	case e.Win:
		parts = append(parts, "`+Windows`")
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}
