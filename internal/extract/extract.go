// Package extract turns uploaded documents into plain text for analysis.
package extract

import (
	"context"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"resumescore/internal/errors"
)

const (
	ProviderLocal = "local"
	ProviderTika  = "tika"
	ProviderText  = "text"
)

var tracer = otel.Tracer("resumescore/extract")

// Document is an uploaded file.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Extractor returns the text content of a document.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (string, error)
}

// Recorder observes extraction outcomes per provider.
type Recorder interface {
	RecordExtraction(ctx context.Context, provider string, err error)
}

type kind int

const (
	kindUnknown kind = iota
	kindPDF
	kindText
)

// Service routes documents to the extractor for their type.
type Service struct {
	pdf         Extractor
	pdfProvider string
	text        Extractor
	recorder    Recorder
	logger      *errors.Logger
}

// NewService returns a router that sends PDFs to pdf and text files to the plain text extractor.
func NewService(pdf Extractor, pdfProvider string, logger *errors.Logger) *Service {
	if logger == nil {
		logger = errors.Discard()
	}
	return &Service{
		pdf:         pdf,
		pdfProvider: pdfProvider,
		text:        PlainTextExtractor{},
		logger:      logger,
	}
}

// WithRecorder sets the metrics sink and returns s.
func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

// PDFProvider names the backend used for PDF documents.
func (s *Service) PDFProvider() string {
	return s.pdfProvider
}

func (s *Service) Extract(ctx context.Context, doc Document) (string, error) {
	var (
		ext      Extractor
		provider string
	)
	switch detect(doc) {
	case kindPDF:
		ext, provider = s.pdf, s.pdfProvider
	case kindText:
		ext, provider = s.text, ProviderText
	default:
		return "", errors.NewDocumentFormatError("unsupported document type", nil).
			WithContext("file", doc.Name).
			WithContext("content_type", doc.ContentType)
	}

	ctx, span := tracer.Start(ctx, "extract."+provider)
	defer span.End()
	span.SetAttributes(
		attribute.String("document.name", doc.Name),
		attribute.Int("document.bytes", len(doc.Data)),
	)

	text, err := ext.Extract(ctx, doc)
	if s.recorder != nil {
		s.recorder.RecordExtraction(ctx, provider, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		s.logger.LogError(err, "Document extraction failed", "provider", provider, "file", doc.Name)
		return "", err
	}

	s.logger.Debug("Document extracted", "provider", provider, "file", doc.Name, "chars", len(text))
	return text, nil
}

// detect classifies by extension first and falls back to the content type.
func detect(doc Document) kind {
	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".pdf":
		return kindPDF
	case ".txt", ".md", ".markdown", ".text":
		return kindText
	}

	ct := strings.ToLower(strings.TrimSpace(strings.Split(doc.ContentType, ";")[0]))
	switch {
	case ct == "application/pdf":
		return kindPDF
	case strings.HasPrefix(ct, "text/"):
		return kindText
	}
	return kindUnknown
}
