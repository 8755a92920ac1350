package engine

import (
	"strings"
	"unicode/utf8"

	"resumescore/internal/types"
)

// ExtractAchievements scans content with every achievement pattern and returns
// the matches grouped by metric type. Metric types without matches are absent.
func ExtractAchievements(content string) map[string][]types.AchievementMatch {
	out := make(map[string][]types.AchievementMatch)
	for _, ap := range achievementPatterns {
		locs := ap.pattern.FindAllStringIndex(content, -1)
		if len(locs) == 0 {
			continue
		}
		matches := make([]types.AchievementMatch, 0, len(locs))
		for _, loc := range locs {
			matches = append(matches, types.AchievementMatch{
				MetricType: ap.metricType,
				Value:      content[loc[0]:loc[1]],
				Context:    contextWindow(content, loc[0], loc[1], achievementContextChars),
			})
		}
		out[ap.metricType] = matches
	}
	return out
}

// CountAchievements sums matches across metric types.
func CountAchievements(achievements map[string][]types.AchievementMatch) int {
	n := 0
	for _, m := range achievements {
		n += len(m)
	}
	return n
}

// contextWindow returns text from n characters before start to n characters
// after end, clamped to s and trimmed.
func contextWindow(s string, start, end, n int) string {
	from := start
	for i := 0; i < n && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(s[:from])
		from -= size
	}
	to := end
	for i := 0; i < n && to < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[to:])
		to += size
	}
	return strings.TrimSpace(s[from:to])
}
