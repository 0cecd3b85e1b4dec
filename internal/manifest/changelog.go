package manifest

import (
	"os"
	"regexp"
)

// changelogHeading matches release headings like "## [Fix] - 2024-05-01".
var changelogHeading = regexp.MustCompile(`(?m)^#{2,6}\s+.+?\s+-\s+(\d{4}-\d{2}-\d{2})\s*$`)

// LatestChangelogDate returns the most recent release date found in the
// changelog at path, or "" when the file is unreadable or has no dated heading.
func LatestChangelogDate(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return latestDate(string(data))
}

func latestDate(text string) string {
	latest := ""
	for _, m := range changelogHeading.FindAllStringSubmatch(text, -1) {
		// ISO dates order lexically.
		if m[1] > latest {
			latest = m[1]
		}
	}
	return latest
}
