package common

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/types"
)

type echoExtractor struct {
	seen extract.Document
}

func (e *echoExtractor) Extract(_ context.Context, doc extract.Document) (string, error) {
	e.seen = doc
	return string(doc.Data), nil
}

func fixedAnalysis(_ context.Context, text string) (types.ResumeAnalysis, error) {
	if text == "" {
		return types.ResumeAnalysis{}, errors.NewEmptyInputError()
	}
	return types.ResumeAnalysis{
		Score:        55,
		Industry:     types.IndustryGeneral,
		SectionOrder: []types.SectionKind{types.SectionSummary},
		Sections: map[types.SectionKind]types.SectionAnalysis{
			types.SectionSummary: {Score: 55, Suggestions: []string{}},
		},
	}, nil
}

func writeResume(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func bufferedHandler(buf *bytes.Buffer) *OutputHandler {
	oh := NewOutputHandler(nil)
	oh.stdout = buf
	return oh
}

func TestRunAnalyzeToStdout(t *testing.T) {
	path := writeResume(t, "cv.md", "SUMMARY\nBackend engineer")
	ext := &echoExtractor{}
	var buf bytes.Buffer

	err := runAnalyze(context.Background(), nil, AnalyzeRequest{
		Filename: path,
		Output:   CommandConfig{OutputFormat: "text"},
	}, ext, fixedAnalysis, bufferedHandler(&buf))
	require.NoError(t, err)

	assert.Equal(t, "cv.md", ext.seen.Name)
	assert.Equal(t, "text/markdown", ext.seen.ContentType)
	assert.Contains(t, buf.String(), "Overall Score: 55.0/100")
}

func TestRunAnalyzeToFile(t *testing.T) {
	path := writeResume(t, "cv.txt", "SUMMARY\nBackend engineer")
	out := filepath.Join(t.TempDir(), "out", "report.json")

	err := RunAnalyzeCommand(context.Background(), nil, AnalyzeRequest{
		Filename: path,
		Output:   CommandConfig{OutputFile: out, OutputFormat: "json"},
	}, &echoExtractor{}, fixedAnalysis)
	require.NoError(t, err)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(written), `"score": 55`)
}

func TestRunAnalyzeFailures(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		maxSize  int64
		format   string
		wantCode string
	}{
		{"empty file", "", 0, "json", errors.ErrCodeEmptyInput},
		{"file too large", "0123456789", 5, "json", errors.ErrCodeFileTooLarge},
		{"unknown format", "SUMMARY\nx", 0, "xml", errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeResume(t, "cv.txt", tt.content)
			var buf bytes.Buffer
			err := runAnalyze(context.Background(), nil, AnalyzeRequest{
				Filename:    path,
				MaxFileSize: tt.maxSize,
				Output:      CommandConfig{OutputFormat: tt.format},
			}, &echoExtractor{}, fixedAnalysis, bufferedHandler(&buf))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestReadDocumentMissingFile(t *testing.T) {
	_, err := NewFileProcessor(nil, 0).ReadDocument(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.True(t, errors.HasCode(err, "INVALID_INPUT_FILE"))
}
