package extract

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"resumescore/internal/config"
	"resumescore/internal/errors"
)

// maxTikaResponse bounds the text read back from the server.
const maxTikaResponse = 16 << 20

// TikaExtractor delegates extraction to an Apache Tika server.
type TikaExtractor struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[string]
	logger  *errors.Logger
}

// NewTikaExtractor builds a client for cfg.URL. A nil breaker is used when
// the circuit breaker is disabled.
func NewTikaExtractor(cfg config.TikaConfig, logger *errors.Logger) *TikaExtractor {
	if logger == nil {
		logger = errors.Discard()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TikaExtractor{
		url: strings.TrimSuffix(cfg.URL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: newTikaBreaker(cfg.CircuitBreaker, logger),
		logger:  logger,
	}
}

func newTikaBreaker(cfg config.CircuitBreakerConfig, logger *errors.Logger) *gobreaker.CircuitBreaker[string] {
	if !cfg.Enabled {
		return nil
	}
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "extract-tika",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		},
		// A document Tika rejects says nothing about the server's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.IsDocumentFormat(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
		},
	})
}

func (t *TikaExtractor) Extract(ctx context.Context, doc Document) (string, error) {
	if t.breaker == nil {
		return t.put(ctx, doc)
	}

	text, err := t.breaker.Execute(func() (string, error) {
		return t.put(ctx, doc)
	})
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", errors.NewNetworkError(errors.ErrCodeExtractorOpen, "text extraction service is unavailable", err).
			WithContext("breaker_state", t.breaker.State().String())
	}
	return text, err
}

func (t *TikaExtractor) put(ctx context.Context, doc Document) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.url+"/tika", bytes.NewReader(doc.Data))
	if err != nil {
		return "", errors.NewInternalError(errors.ErrCodeExtractionFailed, "failed to build extraction request", err)
	}
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/plain")
	if doc.Name != "" {
		req.Header.Set("X-Tika-Resource-Name", doc.Name)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return "", errors.NewNetworkError(errors.ErrCodeExtractionFailed, "extraction request failed", err).
			WithContext("url", t.url)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnsupportedMediaType || resp.StatusCode == http.StatusUnprocessableEntity:
		return "", errors.NewDocumentFormatError("document rejected by extraction service", nil).
			WithContext("status", resp.StatusCode).
			WithContext("file", doc.Name)
	case resp.StatusCode != http.StatusOK:
		return "", errors.NewNetworkError(errors.ErrCodeExtractionFailed,
			fmt.Sprintf("extraction service returned status %d", resp.StatusCode), nil).
			WithContext("url", t.url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTikaResponse))
	if err != nil {
		return "", errors.NewNetworkError(errors.ErrCodeExtractionFailed, "failed to read extraction response", err)
	}

	t.logger.Debug("Tika extraction complete",
		"file", doc.Name,
		"chars", len(body),
		"duration_ms", time.Since(start).Milliseconds())
	return string(body), nil
}

// State reports the circuit breaker state, or "disabled".
func (t *TikaExtractor) State() string {
	if t.breaker == nil {
		return "disabled"
	}
	return t.breaker.State().String()
}
