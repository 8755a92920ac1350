package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescore/internal/config"
	"resumescore/internal/errors"
)

type stubExtractor struct {
	text  string
	err   error
	calls int
}

func (s *stubExtractor) Extract(context.Context, Document) (string, error) {
	s.calls++
	return s.text, s.err
}

type recorded struct {
	provider string
	ok       bool
}

type recorderFunc func(provider string, err error)

func (f recorderFunc) RecordExtraction(_ context.Context, provider string, err error) {
	f(provider, err)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		doc  Document
		want kind
	}{
		{Document{Name: "cv.pdf"}, kindPDF},
		{Document{Name: "CV.PDF"}, kindPDF},
		{Document{Name: "cv.txt"}, kindText},
		{Document{Name: "cv.md"}, kindText},
		{Document{Name: "upload", ContentType: "application/pdf"}, kindPDF},
		{Document{Name: "upload", ContentType: "text/plain; charset=utf-8"}, kindText},
		{Document{Name: "cv.docx", ContentType: "application/octet-stream"}, kindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.doc.Name+tt.doc.ContentType, func(t *testing.T) {
			assert.Equal(t, tt.want, detect(tt.doc))
		})
	}
}

func TestServiceRoutesByType(t *testing.T) {
	pdf := &stubExtractor{text: "from pdf"}
	var seen []recorded
	svc := NewService(pdf, ProviderLocal, nil).WithRecorder(recorderFunc(func(p string, err error) {
		seen = append(seen, recorded{p, err == nil})
	}))

	text, err := svc.Extract(context.Background(), Document{Name: "cv.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "from pdf", text)
	assert.Equal(t, 1, pdf.calls)

	text, err = svc.Extract(context.Background(), Document{Name: "cv.txt", Data: []byte("Skills\nGo")})
	require.NoError(t, err)
	assert.Equal(t, "Skills\nGo", text)
	assert.Equal(t, 1, pdf.calls)

	_, err = svc.Extract(context.Background(), Document{Name: "cv.docx"})
	assert.True(t, errors.IsDocumentFormat(err))

	assert.Equal(t, []recorded{{ProviderLocal, true}, {ProviderText, true}}, seen)
}

func TestServicePropagatesFailure(t *testing.T) {
	pdf := &stubExtractor{err: errors.NewDocumentFormatError("broken", nil)}
	svc := NewService(pdf, ProviderTika, errors.Discard())

	_, err := svc.Extract(context.Background(), Document{Name: "cv.pdf"})
	assert.True(t, errors.IsDocumentFormat(err))
}

func TestPlainTextExtractor(t *testing.T) {
	text, err := PlainTextExtractor{}.Extract(context.Background(), Document{Data: []byte("\ufeffSummary\nEngineer")})
	require.NoError(t, err)
	assert.Equal(t, "Summary\nEngineer", text)

	_, err = PlainTextExtractor{}.Extract(context.Background(), Document{Name: "bad.txt", Data: []byte{0xff, 0xfe, 0x00}})
	assert.True(t, errors.IsDocumentFormat(err))
}

func TestPDFExtractorRejectsGarbage(t *testing.T) {
	_, err := PDFExtractor{}.Extract(context.Background(), Document{Name: "cv.pdf", Data: []byte("definitely not a pdf")})
	assert.True(t, errors.IsDocumentFormat(err))
}

func tikaConfig(url string, breaker bool) config.TikaConfig {
	return config.TikaConfig{
		URL:     url,
		Timeout: 2 * time.Second,
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          breaker,
			FailureThreshold: 0.5,
			MinRequests:      2,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
		},
	}
}

func TestTikaExtractor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tika", r.URL.Path)
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		assert.Equal(t, "cv.pdf", r.Header.Get("X-Tika-Resource-Name"))
		body, _ := io.ReadAll(r.Body)
		fmt.Fprintf(w, "Experience\nextracted %d bytes", len(body))
	}))
	defer srv.Close()

	tika := NewTikaExtractor(tikaConfig(srv.URL+"/", true), errors.Discard())
	text, err := tika.Extract(context.Background(), Document{Name: "cv.pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)
	assert.Equal(t, "Experience\nextracted 8 bytes", text)
	assert.Equal(t, "closed", tika.State())
}

func TestTikaRejectedDocumentDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	tika := NewTikaExtractor(tikaConfig(srv.URL, true), errors.Discard())
	for i := 0; i < 4; i++ {
		_, err := tika.Extract(context.Background(), Document{Name: "cv.pdf"})
		assert.True(t, errors.IsDocumentFormat(err))
	}
	assert.Equal(t, "closed", tika.State())
}

func TestTikaServerFailuresOpenBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tika := NewTikaExtractor(tikaConfig(srv.URL, true), errors.Discard())
	for i := 0; i < 2; i++ {
		_, err := tika.Extract(context.Background(), Document{Name: "cv.pdf"})
		assert.True(t, errors.HasCode(err, errors.ErrCodeExtractionFailed))
	}
	assert.Equal(t, "open", tika.State())

	_, err := tika.Extract(context.Background(), Document{Name: "cv.pdf"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeExtractorOpen))
	assert.Equal(t, int32(2), hits.Load())
}

func TestTikaWithoutBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tika := NewTikaExtractor(tikaConfig(srv.URL, false), nil)
	_, err := tika.Extract(context.Background(), Document{Name: "cv.pdf"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeExtractionFailed))
	assert.Equal(t, "disabled", tika.State())
}
