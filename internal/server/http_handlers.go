package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "resumescore/internal/errors"
)

const healthCheckTimeout = 2 * time.Second

// healthHandler reports the service status and pings the optional backing services.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := map[string]any{
		"status":  "healthy",
		"service": "resumescore",
		"version": s.Version,
		"cache":   s.deps.Engine.Stats().MemoryStats,
	}

	checks := map[string]string{}
	healthy := true
	ping := func(name string, p Pinger) {
		if p == nil {
			checks[name] = "disabled"
			return
		}
		if err := p.Ping(ctx); err != nil {
			s.Logger.LogError(err, "Health check failed", "dependency", name)
			checks[name] = "unavailable"
			healthy = false
			return
		}
		checks[name] = "ok"
	}
	ping("database", s.deps.Store)
	ping("redis", s.deps.Cache)
	response["dependencies"] = checks

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumescore",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"request_timeout":        s.RequestTimeout.String(),
		},
		"engine": s.deps.Engine.Stats(),
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":    s.RateLimit.Enabled,
			"by_ip":      s.RateLimit.ByIP,
			"by_api_key": s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes a JSON body into v and validates its struct tags.
func (s *Server) parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest,
			"content-type must be application/json", nil)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return err
		}
		return apperrors.NewIOError(apperrors.ErrCodeFileNotReadable, "failed to read request body", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest, "failed to parse JSON", err)
	}

	if err := s.validate.Struct(v); err != nil {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest, validationMessage(err), err)
	}
	return nil
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request"
	}
	fe := fieldErrs[0]
	return fmt.Sprintf("field %s failed the %q check", fe.Field(), fe.Tag())
}

// errorStatus maps an error to its HTTP status.
func errorStatus(err error) int {
	var (
		maxBytesErr *http.MaxBytesError
		appErr      *apperrors.AppError
	)
	switch {
	case stderrors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case apperrors.IsEmptyInput(err):
		return http.StatusBadRequest
	case apperrors.IsDocumentFormat(err):
		return http.StatusUnprocessableEntity
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsConflict(err):
		return http.StatusConflict
	case apperrors.HasCode(err, errCodeBusy):
		return http.StatusServiceUnavailable
	case stderrors.As(err, &appErr) && appErr.Type == apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError writes err with its mapped status. Server errors get a generic
// message and are logged; client errors echo the error message.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)

	var (
		appErr      *apperrors.AppError
		maxBytesErr *http.MaxBytesError
		code        string
		message     string
	)
	switch {
	case stderrors.As(err, &maxBytesErr):
		code = apperrors.ErrCodeFileTooLarge
		message = fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit)
	case stderrors.As(err, &appErr):
		code = appErr.Code
		message = appErr.Message
	}

	switch {
	case status == http.StatusServiceUnavailable:
		s.Logger.Warn("Request shed", "endpoint", r.URL.Path, "timeout", s.RequestTimeout.String())
		message = "server busy, retry later"
	case status >= http.StatusInternalServerError:
		s.Logger.LogError(err, "Request failed", "endpoint", r.URL.Path, "method", r.Method)
		code = ""
		message = "internal server error"
	default:
		s.Logger.Info("Request rejected",
			"endpoint", r.URL.Path,
			"status", status,
			"error_code", code)
	}

	writeErrorCode(w, http.StatusText(status), code, message, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes an ErrorResponse without an error code.
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeErrorCode(w, error, "", message, statusCode)
}

func writeErrorCode(w http.ResponseWriter, error, code, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Code:    code,
		Message: message,
	})
}
