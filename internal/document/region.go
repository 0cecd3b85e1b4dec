package document

import (
	"strings"

	"github.com/hpungsan/curate/internal/errors"
)

// Region identifiers known to the document.
const (
	RegionUpdateTime      = "UPDATETIME"
	RegionSections        = "SECTIONS"
	RegionTableOfContents = "TABLE_OF_CONTENTS"
	RegionStatistics      = "STATISTICS"
)

// StartMarker returns the literal opening marker for region.
func StartMarker(region string) string {
	return "<!-- START " + region + " -->"
}

// EndMarker returns the literal closing marker for region.
func EndMarker(region string) string {
	return "<!-- END " + region + " -->"
}

// Merge replaces the body of region in doc with replacement. The result keeps
// everything through the start marker, then a newline, the replacement, a
// newline, and everything from the end marker on.
//
// changed reports whether the old body and replacement differ once surrounding
// whitespace is trimmed from both. Each marker must appear exactly once, start
// before end; anything else is a MISSING_REGION error.
func Merge(region, doc, replacement string) (updated string, changed bool, err error) {
	start, end := StartMarker(region), EndMarker(region)

	startPos := strings.Index(doc, start)
	if startPos < 0 {
		return "", false, errors.NewMissingRegion(region, "start marker not found")
	}
	endPos := strings.Index(doc, end)
	if endPos < 0 {
		return "", false, errors.NewMissingRegion(region, "end marker not found")
	}
	if strings.Count(doc, start) > 1 || strings.Count(doc, end) > 1 {
		return "", false, errors.NewMissingRegion(region, "marker appears more than once")
	}
	bodyStart := startPos + len(start)
	if endPos < bodyStart {
		return "", false, errors.NewMissingRegion(region, "end marker precedes start marker")
	}

	old := doc[bodyStart:endPos]
	changed = strings.TrimSpace(old) != strings.TrimSpace(replacement)

	var b strings.Builder
	b.Grow(bodyStart + len(replacement) + 2 + len(doc) - endPos)
	b.WriteString(doc[:bodyStart])
	b.WriteByte('\n')
	b.WriteString(replacement)
	b.WriteByte('\n')
	b.WriteString(doc[endPos:])

	return b.String(), changed, nil
}

// Body returns the current content between region's markers, trimmed.
func Body(region, doc string) (string, error) {
	start, end := StartMarker(region), EndMarker(region)
	startPos := strings.Index(doc, start)
	endPos := strings.Index(doc, end)
	if startPos < 0 || endPos < 0 || endPos < startPos+len(start) {
		return "", errors.NewMissingRegion(region, "marker pair not found")
	}
	return strings.TrimSpace(doc[startPos+len(start) : endPos]), nil
}
