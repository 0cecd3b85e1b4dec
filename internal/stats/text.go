package stats

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/hpungsan/curate/internal/manifest"
)

// TopN is the leaderboard length.
const TopN = 10

// DefaultProfileURL is the base for author and contributor links.
const DefaultProfileURL = "https://raycast.com"

// Rank is one leaderboard row.
type Rank struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Leaderboard sorts counts by count descending, then name ascending, and
// returns at most n rows. A non-positive n returns every row.
func Leaderboard(counts map[string]int, n int) []Rank {
	rows := make([]Rank, 0, len(counts))
	for name, c := range counts {
		rows = append(rows, Rank{Name: name, Count: c})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Name < rows[j].Name
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// Percent returns count/total as a percentage rounded to two decimals,
// formatted without trailing zeros. A zero total yields "0".
func Percent(count, total int) string {
	if total == 0 {
		return "0"
	}
	p := math.Round(float64(count)/float64(total)*10000) / 100
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// TextOptions tunes RenderText.
type TextOptions struct {
	// ProfileURL prefixes leaderboard links. Defaults to DefaultProfileURL.
	ProfileURL string
}

// RenderText renders the statistics block. The result starts and ends with a newline.
func RenderText(s Snapshot, totalPackages, swiftCount int, opts TextOptions) string {
	profile := strings.TrimRight(opts.ProfileURL, "/")
	if profile == "" {
		profile = DefaultProfileURL
	}
	p := s.Platforms
	cmd := s.Commands

	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "- **%d** packages in **%d** categories, **%d** packages use Swift\n",
		totalPackages, len(s.Categories), swiftCount)
	fmt.Fprintf(&b, "- **%d** authors, **%d** contributors (of which **%d** are only contributors, not authors)\n",
		len(s.Authors), len(s.Contributors), len(s.OnlyContributors()))
	fmt.Fprintf(&b, "- **%d** total commands (%d view, %d no-view, %d menu-bar)\n",
		cmd.Total, cmd.ByMode[manifest.ModeView], cmd.ByMode[manifest.ModeNoView], cmd.ByMode[manifest.ModeMenuBar])
	fmt.Fprintf(&b, "- **%d** AI tools\n", s.AIToolCount)
	fmt.Fprintf(&b, "- **%d** packages have no platform selected (%s%%, macOS only)\n",
		p.NoPlatformSelected, Percent(p.NoPlatformSelected, totalPackages))
	fmt.Fprintf(&b, "- **%d** packages have macOS only (%s%%)\n",
		p.MacOnly, Percent(p.MacOnly, totalPackages))
	fmt.Fprintf(&b, "- **%d** packages have Windows (%s%%), of which **%d** packages have Windows only (%s%%)\n",
		p.WithWindows, Percent(p.WithWindows, totalPackages), p.WindowsOnly, Percent(p.WindowsOnly, totalPackages))

	fmt.Fprintf(&b, "- Top **%d** authors:\n", TopN)
	b.WriteString(leaderboardLines(Leaderboard(s.Authors, TopN), profile))
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Top **%d** contributors:\n", TopN)
	b.WriteString(leaderboardLines(Leaderboard(s.Contributors, TopN), profile))
	b.WriteString("\n")

	return b.String()
}

func leaderboardLines(rows []Rank, profile string) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = fmt.Sprintf("  - [%s](%s/%s) (%d)", r.Name, profile, r.Name, r.Count)
	}
	return strings.Join(lines, "\n")
}
