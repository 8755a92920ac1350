package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumescore/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ResumeAnalysis", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "ResumeAnalysis", &AnalysisMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ResumeAnalysis, *types.ResumeAnalysis:
		return "ResumeAnalysis"
	default:
		return "any"
	}
}

func asAnalysis(data any) (types.ResumeAnalysis, error) {
	switch v := data.(type) {
	case types.ResumeAnalysis:
		return v, nil
	case *types.ResumeAnalysis:
		if v != nil {
			return *v, nil
		}
	}
	return types.ResumeAnalysis{}, fmt.Errorf("expected ResumeAnalysis, got %T", data)
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalysisTextFormatter renders an analysis as plain text.
type AnalysisTextFormatter struct{}

func (f *AnalysisTextFormatter) Format(data any) (string, error) {
	result, err := asAnalysis(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== RESUME ANALYSIS ===\n")
	fmt.Fprintf(&output, "Overall Score: %.1f/100\n", result.Score)
	fmt.Fprintf(&output, "Industry: %s\n\n", humanize(string(result.Industry)))

	output.WriteString("=== SECTIONS ===\n")
	for _, kind := range result.SectionOrder {
		section := result.Sections[kind]
		fmt.Fprintf(&output, "%s: %.1f/100\n", humanize(string(kind)), section.Score)
		for _, suggestion := range section.Suggestions {
			fmt.Fprintf(&output, "  - %s\n", suggestion)
		}
	}
	output.WriteString("\n")

	writeTextList(&output, "STRENGTHS", result.Strengths)
	writeTextList(&output, "WEAKNESSES", result.Weaknesses)

	output.WriteString("=== DOCUMENT ===\n")
	fmt.Fprintf(&output, "Words: %d\n", result.Metrics.WordCount)
	fmt.Fprintf(&output, "Sentences: %d\n", result.Metrics.SentenceCount)
	fmt.Fprintf(&output, "Action verbs: %d\n", result.Metrics.ActionVerbsFound)

	return output.String(), nil
}

func (f *AnalysisTextFormatter) SupportedType() string {
	return "ResumeAnalysis"
}

func writeTextList(output *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(output, "=== %s ===\n", title)
	for _, item := range items {
		fmt.Fprintf(output, "- %s\n", item)
	}
	output.WriteString("\n")
}

// AnalysisMarkdownFormatter renders an analysis as a Markdown report.
type AnalysisMarkdownFormatter struct{}

func (f *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, err := asAnalysis(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# Resume Analysis\n\n")
	fmt.Fprintf(&output, "**Overall Score:** %.1f/100\n\n", result.Score)
	fmt.Fprintf(&output, "**Industry:** %s\n\n", humanize(string(result.Industry)))

	output.WriteString("## Sections\n\n")
	output.WriteString("| Section | Score |\n|---|---|\n")
	for _, kind := range result.SectionOrder {
		fmt.Fprintf(&output, "| %s | %.1f |\n", humanize(string(kind)), result.Sections[kind].Score)
	}
	output.WriteString("\n")

	writeMarkdownList(&output, "Strengths", result.Strengths)
	writeMarkdownList(&output, "Weaknesses", result.Weaknesses)

	if len(result.Suggestions) > 0 {
		output.WriteString("## Suggestions\n\n")
		for i, suggestion := range result.Suggestions {
			fmt.Fprintf(&output, "%d. %s\n", i+1, suggestion)
		}
		output.WriteString("\n")
	}

	output.WriteString("## Document\n\n")
	fmt.Fprintf(&output, "- Words: %d\n", result.Metrics.WordCount)
	fmt.Fprintf(&output, "- Sentences: %d\n", result.Metrics.SentenceCount)
	fmt.Fprintf(&output, "- Action verbs: %d\n", result.Metrics.ActionVerbsFound)

	return output.String(), nil
}

func (f *AnalysisMarkdownFormatter) SupportedType() string {
	return "ResumeAnalysis"
}

func writeMarkdownList(output *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(output, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(output, "- %s\n", item)
	}
	output.WriteString("\n")
}

// humanize turns snake_case identifiers into words.
func humanize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
