package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"resumescore/internal/errors"
	"resumescore/internal/nlp"
	"resumescore/internal/types"
)

type analyzerInput struct {
	content   string
	industry  types.Industry
	annotator nlp.Annotator
}

type sectionAnalyzer func(in analyzerInput) (types.SectionAnalysis, error)

var sectionAnalyzers = map[types.SectionKind]sectionAnalyzer{
	types.SectionSkills: func(in analyzerInput) (types.SectionAnalysis, error) {
		return AnalyzeSkills(in.content, in.industry), nil
	},
	types.SectionExperience: func(in analyzerInput) (types.SectionAnalysis, error) {
		return AnalyzeExperience(in.content, in.annotator)
	},
	types.SectionEducation: func(in analyzerInput) (types.SectionAnalysis, error) {
		return AnalyzeEducation(in.content), nil
	},
	types.SectionContact: func(in analyzerInput) (types.SectionAnalysis, error) {
		return AnalyzeContact(in.content), nil
	},
}

// analyzerFor returns the analyzer registered for kind, or the default analyzer.
func analyzerFor(kind types.SectionKind) sectionAnalyzer {
	if a, ok := sectionAnalyzers[kind]; ok {
		return a
	}
	return func(in analyzerInput) (types.SectionAnalysis, error) {
		return AnalyzeDefault(in.content), nil
	}
}

// AnalyzeSkills scores content against the skill categories of industry.
// Each category scores 20 per matched skill up to 100; the section score is
// the mean over the categories.
func AnalyzeSkills(content string, industry types.Industry) types.SectionAnalysis {
	return analyzeSkillsAgainst(content, industry, categoriesFor(industry))
}

func analyzeSkillsAgainst(content string, industry types.Industry, categories []skillCategory) types.SectionAnalysis {
	details := &types.SkillsDetails{
		Industry:       industry,
		Categories:     make([]string, 0, len(categories)),
		FoundSkills:    make(map[string][]string, len(categories)),
		CategoryScores: make(map[string]float64, len(categories)),
	}

	var categoryHints []string
	matchedCategories := 0
	total := 0.0
	for _, cat := range categories {
		found := []string{}
		var missing []string
		for _, skill := range cat.skills {
			if skillMatches(skill, content) {
				found = append(found, skill)
			} else {
				missing = append(missing, skill)
			}
		}

		score := math.Min(100, float64(len(found))*20)
		details.Categories = append(details.Categories, cat.name)
		details.FoundSkills[cat.name] = found
		details.CategoryScores[cat.name] = score
		total += score

		if len(found) > 0 {
			matchedCategories++
		}
		if len(found) < 2 && len(missing) > 0 {
			categoryHints = append(categoryHints, fmt.Sprintf(
				"Consider adding more %s skills such as: %s",
				displayName(cat.name), strings.Join(missing[:min(3, len(missing))], ", ")))
		}
	}

	suggestions := []string{}
	if matchedCategories < 3 {
		suggestions = append(suggestions, fmt.Sprintf(
			"Broaden your skills section to cover more areas relevant to %s", displayName(string(industry))))
	}
	suggestions = append(suggestions, categoryHints...)

	score := 0.0
	if len(categories) > 0 {
		score = total / float64(len(categories))
	}

	return types.SectionAnalysis{
		Score:       math.Min(100, score),
		Suggestions: suggestions,
		Details:     types.SectionDetails{Skills: details},
	}
}

func skillMatches(skill, content string) bool {
	if p, ok := skillPatterns[skill]; ok {
		return p.MatchString(content)
	}
	return strings.Contains(strings.ToLower(content), skill)
}

// AnalyzeExperience scores action verbs, quantified achievements and passive
// voice. Passive sentences subtract from the score without a lower bound.
func AnalyzeExperience(content string, annotator nlp.Annotator) (types.SectionAnalysis, error) {
	ann, err := annotator.Annotate(content)
	if err != nil {
		return types.SectionAnalysis{}, errors.NewInternalError(errors.ErrCodeAnnotationFailed,
			"failed to annotate experience section", err)
	}

	verbs := actionVerbsIn(ann)
	achievements := ExtractAchievements(content)
	achievementCount := CountAchievements(achievements)
	passive := ann.PassiveSentences()

	raw := math.Min(100, float64(len(verbs))*5) +
		math.Min(100, float64(achievementCount)*10) -
		float64(len(passive))*5

	suggestions := []string{}
	if len(verbs) < 3 {
		suggestions = append(suggestions, "Start bullet points with strong action verbs such as developed, led or implemented")
	}
	if achievementCount == 0 {
		suggestions = append(suggestions, "Quantify your achievements with numbers, percentages or monetary amounts")
	}
	if len(passive) > 0 {
		suggestions = append(suggestions, "Rewrite these passive-voice sentences in active voice: "+strings.Join(passive, " | "))
	}

	return types.SectionAnalysis{
		Score:       math.Min(100, raw),
		Suggestions: suggestions,
		Details: types.SectionDetails{Experience: &types.ExperienceDetails{
			ActionVerbs:      verbs,
			ActionVerbCount:  len(verbs),
			Achievements:     achievements,
			AchievementCount: achievementCount,
			PassiveSentences: nonNil(passive),
			WordCount:        ann.WordCount(),
			SentenceCount:    ann.SentenceCount(),
		}},
	}, nil
}

// actionVerbsIn returns every action-verb token occurrence, lowercased, in order.
func actionVerbsIn(ann nlp.Annotation) []string {
	verbs := []string{}
	for _, tok := range ann.Tokens {
		lower := tok.Lower
		if lower == "" {
			lower = strings.ToLower(tok.Text)
		}
		if actionVerbs[lower] {
			verbs = append(verbs, lower)
		}
	}
	return verbs
}

// AnalyzeEducation scores institution keywords, dates, a GPA and degree names.
func AnalyzeEducation(content string) types.SectionAnalysis {
	lower := strings.ToLower(content)

	keywords := []string{}
	for _, kw := range educationKeywords {
		if strings.Contains(lower, kw) {
			keywords = append(keywords, kw)
		}
	}
	years := nonNil(yearPattern.FindAllString(content, -1))
	degrees := nonNil(degreePattern.FindAllString(content, -1))

	var gpa *float64
	if m := gpaPattern.FindStringSubmatch(content); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			gpa = &v
		}
	}

	raw := float64(len(keywords))*10 + float64(len(years))*5 + float64(len(degrees))*15
	if gpa != nil {
		raw += 20
	}

	suggestions := []string{}
	if len(keywords) < 3 {
		suggestions = append(suggestions, "Add more detail about your education, such as institution, degree and relevant coursework")
	}
	if len(years) < 2 {
		suggestions = append(suggestions, "Include start and graduation dates for your education")
	}
	if !strings.Contains(lower, "gpa") {
		suggestions = append(suggestions, "Consider listing your GPA if it is 3.0 or higher")
	}
	if len(degrees) == 0 {
		suggestions = append(suggestions, "State your degree explicitly, for example BS in Computer Science")
	}

	return types.SectionAnalysis{
		Score:       math.Min(100, raw),
		Suggestions: suggestions,
		Details: types.SectionDetails{Education: &types.EducationDetails{
			Keywords: keywords,
			Years:    years,
			GPA:      gpa,
			Degrees:  degrees,
		}},
	}
}

// AnalyzeContact scores the presence of each contact channel once.
func AnalyzeContact(content string) types.SectionAnalysis {
	details := &types.ContactDetails{
		Email:     emailPattern.FindString(content),
		Phone:     phonePattern.FindString(content),
		LinkedIn:  linkedInPattern.FindString(content),
		GitHub:    gitHubPattern.FindString(content),
		Portfolio: findPortfolio(content),
	}
	present := map[string]bool{
		"email":     details.Email != "",
		"phone":     details.Phone != "",
		"linkedin":  details.LinkedIn != "",
		"github":    details.GitHub != "",
		"portfolio": details.Portfolio != "",
	}

	score := 0.0
	suggestions := []string{}
	for _, ch := range contactChannels {
		if present[ch.name] {
			score += ch.weight
		} else {
			suggestions = append(suggestions, ch.suggestion)
		}
	}

	return types.SectionAnalysis{
		Score:       math.Min(100, score),
		Suggestions: suggestions,
		Details:     types.SectionDetails{Contact: details},
	}
}

// findPortfolio returns the first URL that is not a LinkedIn or GitHub profile.
func findPortfolio(content string) string {
	for _, u := range portfolioPattern.FindAllString(content, -1) {
		if strings.Contains(u, "linkedin.com") || strings.Contains(u, "github.com") {
			continue
		}
		return u
	}
	return ""
}

// AnalyzeDefault scores sections without a dedicated analyzer.
func AnalyzeDefault(string) types.SectionAnalysis {
	return types.SectionAnalysis{Score: 0, Suggestions: []string{}}
}

func displayName(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
