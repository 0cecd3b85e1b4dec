package document

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// Content holds the generated bodies for the non-timestamp regions.
type Content struct {
	Sections        string
	TableOfContents string
	Statistics      string
}

// Result is the outcome of Apply.
type Result struct {
	Document string

	// Changed is the OR of the sections, table-of-contents and statistics
	// regions. The timestamp region never contributes.
	Changed bool

	// Token names this run's timestamp badge.
	Token string
}

// NewToken returns a fresh per-run token.
func NewToken() string {
	return strings.ToLower(ulid.Make().String())
}

// UpdateTimeBadge returns the badge file name for token.
func UpdateTimeBadge(token string) string {
	return token + "_update-time.svg"
}

// Apply merges content into doc under a fresh token.
func Apply(doc string, content Content) (*Result, error) {
	return ApplyWithToken(doc, content, NewToken())
}

// ApplyWithToken merges the timestamp, sections, table-of-contents and
// statistics regions, in that order. Either all four merge or doc is left
// untouched and an error is returned.
func ApplyWithToken(doc string, content Content, token string) (*Result, error) {
	stamp := "![Last update](/icons/" + UpdateTimeBadge(token) + ")"

	out, _, err := Merge(RegionUpdateTime, doc, stamp)
	if err != nil {
		return nil, err
	}

	changed := false
	for _, step := range []struct{ region, body string }{
		{RegionSections, content.Sections},
		{RegionTableOfContents, content.TableOfContents},
		{RegionStatistics, content.Statistics},
	} {
		var regionChanged bool
		out, regionChanged, err = Merge(step.region, out, step.body)
		if err != nil {
			return nil, err
		}
		changed = changed || regionChanged
	}

	return &Result{Document: out, Changed: changed, Token: token}, nil
}

// Reset empties every generated region. The sections region keeps a single
// blank line.
func Reset(doc string) (string, error) {
	out := doc
	for _, step := range []struct{ region, body string }{
		{RegionSections, "\n"},
		{RegionTableOfContents, ""},
		{RegionStatistics, ""},
		{RegionUpdateTime, ""},
	} {
		var err error
		out, _, err = Merge(step.region, out, step.body)
		if err != nil {
			return "", err
		}
	}
	return out, nil
}
