package engine

import (
	"strings"

	"resumescore/internal/types"
)

// ClassifyIndustry counts, per industry, how many of its keywords occur in
// text as case-insensitive substrings. The strictly greatest count wins, ties
// keep the first-declared industry and a zero maximum yields general.
func ClassifyIndustry(text string) types.Industry {
	return classifyAgainst(industryProfiles, text)
}

func classifyAgainst(profiles []industryProfile, text string) types.Industry {
	lower := strings.ToLower(text)

	best := types.IndustryGeneral
	bestCount := 0
	for _, p := range profiles {
		count := 0
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				count++
			}
		}
		if count > bestCount {
			best = p.industry
			bestCount = count
		}
	}
	return best
}
