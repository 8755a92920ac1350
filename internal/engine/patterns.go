package engine

import (
	"regexp"
	"strings"

	"resumescore/internal/types"
)

// The tables in this file are built once at package init and never mutated.

type headerPattern struct {
	kind    types.SectionKind
	pattern *regexp.Regexp
}

func header(kind types.SectionKind, names ...string) headerPattern {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return headerPattern{
		kind:    kind,
		pattern: regexp.MustCompile(`(?i)^(?:` + strings.Join(quoted, "|") + `)\s*:?$`),
	}
}

// headerPatterns are tried in order; the first match wins.
var headerPatterns = []headerPattern{
	header(types.SectionEducation, "education", "academic background", "academics",
		"education and training", "educational background", "qualifications"),
	header(types.SectionExperience, "experience", "work experience", "professional experience",
		"employment history", "work history", "employment", "relevant experience"),
	header(types.SectionSkills, "skills", "technical skills", "core competencies", "competencies",
		"key skills", "skills & expertise", "skills and expertise"),
	header(types.SectionProjects, "projects", "personal projects", "key projects",
		"selected projects", "academic projects"),
	header(types.SectionContact, "contact", "contact information", "contact info", "contact details"),
	header(types.SectionSummary, "summary", "professional summary", "profile", "objective",
		"career objective", "about me", "about"),
	header(types.SectionCertifications, "certifications", "certificates", "licenses",
		"licenses & certifications", "licenses and certifications"),
	header(types.SectionLanguages, "languages", "language skills"),
}

type industryProfile struct {
	industry   types.Industry
	keywords   []string
	categories []skillCategory
}

type skillCategory struct {
	name   string
	skills []string
}

// industryProfiles is in declaration order; classification ties keep the earlier entry.
var industryProfiles = []industryProfile{
	{
		industry: types.IndustrySoftwareEngineering,
		keywords: []string{
			"software", "developer", "programming", "backend", "frontend", "full stack",
			"api", "microservices", "debugging", "code review", "git", "deployment",
			"scalable", "architecture",
		},
		categories: []skillCategory{
			{"programming", []string{"python", "java", "javascript", "typescript", "go", "c++", "c#", "ruby", "rust", "kotlin"}},
			{"web", []string{"react", "angular", "vue", "node.js", "django", "flask", "spring", "html", "css"}},
			{"databases", []string{"sql", "postgresql", "mysql", "mongodb", "redis", "elasticsearch"}},
			{"cloud", []string{"aws", "azure", "gcp", "docker", "kubernetes", "terraform"}},
			{"tools", []string{"git", "jenkins", "jira", "linux", "ci/cd"}},
		},
	},
	{
		industry: types.IndustryDataScience,
		keywords: []string{
			"data", "machine learning", "statistics", "statistical", "model", "analytics",
			"deep learning", "visualization", "dataset", "regression", "prediction",
			"neural network", "experiment",
		},
		categories: []skillCategory{
			{"programming", []string{"python", "r", "sql", "scala", "julia"}},
			{"machine_learning", []string{"scikit-learn", "tensorflow", "pytorch", "keras", "xgboost", "nlp"}},
			{"data_tools", []string{"pandas", "numpy", "spark", "hadoop", "airflow", "tableau", "power bi"}},
			{"statistics", []string{"regression", "hypothesis testing", "bayesian", "a/b testing", "time series"}},
			{"cloud", []string{"aws", "gcp", "azure", "databricks", "snowflake"}},
		},
	},
	{
		industry: types.IndustryProductManagement,
		keywords: []string{
			"product", "roadmap", "stakeholder", "user research", "requirements", "launch",
			"market", "strategy", "kpi", "prioritization", "customer", "go-to-market",
		},
		categories: []skillCategory{
			{"product", []string{"roadmap", "backlog", "user stories", "prioritization", "mvp", "product strategy"}},
			{"analytics", []string{"sql", "a/b testing", "google analytics", "mixpanel", "amplitude", "kpi"}},
			{"tools", []string{"jira", "confluence", "figma", "asana", "trello"}},
			{"methodologies", []string{"agile", "scrum", "kanban", "lean", "design thinking"}},
			{"business", []string{"market research", "go-to-market", "pricing", "stakeholder management", "competitive analysis"}},
		},
	},
}

// generalCategories is used when no industry keyword matched.
var generalCategories = []skillCategory{
	{"communication", []string{"communication", "presentation", "writing", "public speaking", "negotiation"}},
	{"leadership", []string{"leadership", "mentoring", "team management", "coaching", "delegation"}},
	{"organization", []string{"project management", "planning", "time management", "scheduling", "budgeting"}},
	{"technical", []string{"microsoft office", "excel", "data analysis", "research", "crm"}},
}

// skillPatterns maps a skill string to a case-insensitive pattern that only
// matches it on token boundaries, so "go" is not found inside "google".
var skillPatterns = compileSkillPatterns()

func compileSkillPatterns() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)
	add := func(cats []skillCategory) {
		for _, c := range cats {
			for _, s := range c.skills {
				if _, ok := out[s]; ok {
					continue
				}
				out[s] = regexp.MustCompile(`(?i)(?:^|[^a-z0-9+#])` + regexp.QuoteMeta(s) + `(?:$|[^a-z0-9+#])`)
			}
		}
	}
	for _, p := range industryProfiles {
		add(p.categories)
	}
	add(generalCategories)
	return out
}

func categoriesFor(industry types.Industry) []skillCategory {
	for _, p := range industryProfiles {
		if p.industry == industry {
			return p.categories
		}
	}
	return generalCategories
}

var actionVerbs = map[string]bool{
	"developed": true, "created": true, "implemented": true, "managed": true,
	"led": true, "increased": true, "improved": true, "achieved": true,
	"designed": true, "built": true, "launched": true, "delivered": true,
	"reduced": true, "optimized": true, "established": true, "coordinated": true,
	"spearheaded": true, "streamlined": true, "mentored": true, "negotiated": true,
	"analyzed": true, "architected": true,
}

type achievementPattern struct {
	metricType string
	pattern    *regexp.Regexp
}

const (
	metricPercentage = "percentage"
	metricMonetary   = "monetary"
	metricMultiplier = "multiplier"
	metricReduction  = "reduction"
	metricIncrease   = "increase"
	metricScale      = "scale"
	metricEfficiency = "efficiency"
	metricCost       = "cost"
)

var achievementPatterns = []achievementPattern{
	{metricPercentage, regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s?%`)},
	{metricMonetary, regexp.MustCompile(`(?i)\$\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:k|m|b|million|billion|thousand)\b)?`)},
	{metricMultiplier, regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?x\b`)},
	{metricReduction, regexp.MustCompile(`(?i)\b(?:reduc(?:ed|ing)|decreas(?:ed|ing)|cut|lower(?:ed|ing)|minimiz(?:ed|ing))\b[^.\n]{0,40}?\d+(?:\.\d+)?\s?%`)},
	{metricIncrease, regexp.MustCompile(`(?i)\b(?:increas(?:ed|ing)|grew|grow(?:n|ing)?|boost(?:ed|ing)|improv(?:ed|ing)|rais(?:ed|ing))\b[^.\n]{0,40}?\d+(?:\.\d+)?\s?%`)},
	{metricScale, regexp.MustCompile(`(?i)\b\d[\d,]*(?:\.\d+)?\s?(?:k|m|million|thousand)?\+?\s(?:users|customers|clients|requests|transactions|employees|people|members|downloads|servers|countries)\b`)},
	{metricEfficiency, regexp.MustCompile(`(?i)\b(?:sav(?:ed|ing)\s+\d+(?:\.\d+)?\s?(?:hours?|days?|weeks?|minutes?)|\d+(?:\.\d+)?\s?(?:hours?|days?|weeks?|minutes?)\s+(?:saved|faster|per\s+week|per\s+month))\b`)},
	{metricCost, regexp.MustCompile(`(?i)\b(?:sav(?:ed|ings?)|costs?|budget|expenses?|spend(?:ing)?)\b[^.\n]{0,30}?\$\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:k|m|million)\b)?`)},
}

const achievementContextChars = 50

// Contact patterns are case-sensitive as written.
var (
	emailPattern     = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern     = regexp.MustCompile(`(?:\+?1[\s.\-]?)?(?:\(\d{3}\)|\d{3})[\s.\-]?\d{3}[\s.\-]?\d{4}\b`)
	linkedInPattern  = regexp.MustCompile(`(?:https?://)?(?:www\.)?linkedin\.com/in/[\w\-]+/?`)
	gitHubPattern    = regexp.MustCompile(`(?:https?://)?(?:www\.)?github\.com/[\w\-]+/?`)
	portfolioPattern = regexp.MustCompile(`(?:https?://|www\.)[\w\-]+(?:\.[\w\-]+)+(?:/[^\s,;)]*)?`)
)

type contactChannel struct {
	name       string
	weight     float64
	suggestion string
}

var contactChannels = []contactChannel{
	{"email", 25, "Add a professional email address"},
	{"phone", 25, "Add a phone number"},
	{"linkedin", 20, "Add your LinkedIn profile URL"},
	{"github", 15, "Add your GitHub profile to showcase your work"},
	{"portfolio", 15, "Add a link to your portfolio or personal website"},
}

var educationKeywords = []string{
	"university", "college", "institute", "school", "degree", "bachelor",
	"master", "phd", "graduated", "honors", "coursework", "major", "minor",
	"diploma", "thesis",
}

var (
	yearPattern   = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	gpaPattern    = regexp.MustCompile(`(?:GPA|gpa)\s*(?:of\s*)?[:=\-]?\s*(\d+\.\d+)`)
	degreePattern = regexp.MustCompile(`\b(?:Ph\.?D|B\.?S|B\.?A|B\.?Sc|M\.?S|M\.?A|M\.?Sc|MBA|B\.?Tech|M\.?Tech|B\.?E|M\.?Eng|[Bb]achelor(?:'s)?|[Mm]aster(?:'s)?|[Aa]ssociate(?:'s)?|[Dd]octorate)\b\.?(?:\s+(?:of|in)\s+[\w&]+(?:\s+[\w&]+){0,3})?`)
)
