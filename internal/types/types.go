package types

import "time"

// SectionKind names a resume segment.
type SectionKind string

const (
	SectionSummary        SectionKind = "summary"
	SectionEducation      SectionKind = "education"
	SectionExperience     SectionKind = "experience"
	SectionSkills         SectionKind = "skills"
	SectionProjects       SectionKind = "projects"
	SectionContact        SectionKind = "contact"
	SectionCertifications SectionKind = "certifications"
	SectionLanguages      SectionKind = "languages"
)

// Industry is the taxonomy bucket a resume is scored against.
type Industry string

const (
	IndustrySoftwareEngineering Industry = "software_engineering"
	IndustryDataScience         Industry = "data_science"
	IndustryProductManagement   Industry = "product_management"
	IndustryGeneral             Industry = "general"
)

// AchievementMatch is one quantifiable claim found in a section.
type AchievementMatch struct {
	MetricType string `json:"metric_type"`
	Value      string `json:"value"`
	Context    string `json:"context"`
}

// SkillsDetails is reported by the skills analyzer.
type SkillsDetails struct {
	Industry       Industry            `json:"industry"`
	Categories     []string            `json:"categories"`
	FoundSkills    map[string][]string `json:"found_skills"`
	CategoryScores map[string]float64  `json:"category_scores"`
}

// ExperienceDetails is reported by the experience analyzer.
type ExperienceDetails struct {
	ActionVerbs      []string                      `json:"action_verbs"`
	ActionVerbCount  int                           `json:"action_verb_count"`
	Achievements     map[string][]AchievementMatch `json:"achievements"`
	AchievementCount int                           `json:"achievement_count"`
	PassiveSentences []string                      `json:"passive_sentences"`
	WordCount        int                           `json:"word_count"`
	SentenceCount    int                           `json:"sentence_count"`
}

// EducationDetails is reported by the education analyzer.
type EducationDetails struct {
	Keywords []string `json:"keywords"`
	Years    []string `json:"years"`
	GPA      *float64 `json:"gpa,omitempty"`
	Degrees  []string `json:"degrees"`
}

// ContactDetails holds the first match per channel; empty means absent.
type ContactDetails struct {
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// SectionDetails carries exactly one analyzer's details, or none for sections
// scored by the default analyzer.
type SectionDetails struct {
	Skills     *SkillsDetails     `json:"skills,omitempty"`
	Experience *ExperienceDetails `json:"experience,omitempty"`
	Education  *EducationDetails  `json:"education,omitempty"`
	Contact    *ContactDetails    `json:"contact,omitempty"`
}

// SectionAnalysis is the result for one section.
type SectionAnalysis struct {
	Score       float64        `json:"score"`
	Suggestions []string       `json:"suggestions"`
	Details     SectionDetails `json:"details"`
}

// DocumentMetrics are whole-document counts.
type DocumentMetrics struct {
	WordCount        int `json:"word_count"`
	SentenceCount    int `json:"sentence_count"`
	ActionVerbsFound int `json:"action_verbs_found"`
}

// ResumeAnalysis is the aggregate result for one resume text. Values returned
// by the engine may be shared through its cache and must be treated as read-only.
type ResumeAnalysis struct {
	Score        float64                         `json:"score"`
	Industry     Industry                        `json:"industry"`
	SectionOrder []SectionKind                   `json:"section_order"`
	Sections     map[SectionKind]SectionAnalysis `json:"sections"`
	Suggestions  []string                        `json:"suggestions"`
	Strengths    []string                        `json:"strengths"`
	Weaknesses   []string                        `json:"weaknesses"`
	Metrics      DocumentMetrics                 `json:"metrics"`
}

// AnalyzeTextRequest is the body of POST /analyze/text.
type AnalyzeTextRequest struct {
	Text string `json:"text" validate:"required"`
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// User is a resume owner.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// FileInfo describes the uploaded document a version was built from.
type FileInfo struct {
	Path         string `json:"path,omitempty"`
	OriginalName string `json:"original_name,omitempty"`
	Size         int64  `json:"size,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
}

// ResumeVersion is a stored, analyzed revision of a user's resume.
type ResumeVersion struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	VersionName string          `json:"version_name"`
	Content     string          `json:"content,omitempty"`
	Score       float64         `json:"score"`
	Industry    Industry        `json:"industry"`
	Analysis    *ResumeAnalysis `json:"analysis,omitempty"`
	File        FileInfo        `json:"file"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}
