package common

import (
	"context"

	"resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/types"
)

// Extractor turns a document into text.
type Extractor interface {
	Extract(ctx context.Context, doc extract.Document) (string, error)
}

// AnalyzeFunc scores resume text.
type AnalyzeFunc func(context.Context, string) (types.ResumeAnalysis, error)

// AnalyzeRequest is one file-based analysis run.
type AnalyzeRequest struct {
	Filename    string
	MaxFileSize int64
	Output      CommandConfig
}

// RunAnalyzeCommand reads the file, extracts its text, analyzes it and writes
// the rendered result.
func RunAnalyzeCommand(
	ctx context.Context,
	logger *errors.Logger,
	req AnalyzeRequest,
	extractor Extractor,
	analyze AnalyzeFunc,
) error {
	return runAnalyze(ctx, logger, req, extractor, analyze, NewOutputHandler(logger))
}

func runAnalyze(
	ctx context.Context,
	logger *errors.Logger,
	req AnalyzeRequest,
	extractor Extractor,
	analyze AnalyzeFunc,
	out *OutputHandler,
) error {
	if logger == nil {
		logger = errors.Discard()
	}

	doc, err := NewFileProcessor(logger, req.MaxFileSize).ReadDocument(req.Filename)
	if err != nil {
		return err
	}

	text, err := extractor.Extract(ctx, doc)
	if err != nil {
		return err
	}

	logger.Info("Analyzing resume",
		"file", doc.Name,
		"content_type", doc.ContentType,
		"chars", len(text),
		"format", req.Output.OutputFormat)

	result, err := analyze(ctx, text)
	if err != nil {
		return err
	}

	logger.Info("Resume analyzed",
		"score", result.Score,
		"industry", result.Industry,
		"sections", len(result.SectionOrder))

	return out.HandleOutput(result, req.Output)
}
