package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeDocument   ErrorType = "document"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error constructors for different types
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewDocumentError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeDocument, code, message, cause)
}

func NewNetworkError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNetwork, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewStorageError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeStorage, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// NewEmptyInputError reports resume text that is empty after trimming.
func NewEmptyInputError() *AppError {
	return NewValidationError(ErrCodeEmptyInput, "resume text is empty", nil)
}

// NewDocumentFormatError reports document bytes that could not be turned into text.
func NewDocumentFormatError(message string, cause error) *AppError {
	return NewDocumentError(ErrCodeDocumentFormat, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	for err != nil {
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

func IsEmptyInput(err error) bool {
	return HasCode(err, ErrCodeEmptyInput)
}

func IsDocumentFormat(err error) bool {
	return HasCode(err, ErrCodeDocumentFormat)
}

func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFound)
}

func IsConflict(err error) bool {
	return HasCode(err, ErrCodeConflict)
}

// Logger wraps slog with application-specific methods
type Logger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// NewLogger creates a new structured logger writing JSON to stdout
func NewLogger(level slog.Level) *Logger {
	return newLoggerTo(os.Stdout, level)
}

func newLoggerTo(w io.Writer, level slog.Level) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(level)

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv})
	return &Logger{logger: slog.New(handler), level: lv}
}

// LogError logs an application error with appropriate level and context
func (l *Logger) LogError(err error, message string, args ...any) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		logArgs := []any{
			"error_type", appErr.Type,
			"error_code", appErr.Code,
			"error_message", appErr.Message,
		}
		if appErr.Cause != nil {
			logArgs = append(logArgs, "cause", appErr.Cause.Error())
		}
		for key, value := range appErr.Context {
			logArgs = append(logArgs, key, value)
		}
		logArgs = append(logArgs, args...)

		l.logger.Error(message, logArgs...)
		return
	}

	logArgs := append([]any{"error", err.Error()}, args...)
	l.logger.Error(message, logArgs...)
}

func (l *Logger) Info(message string, args ...any) {
	l.logger.Info(message, args...)
}

func (l *Logger) Debug(message string, args ...any) {
	l.logger.Debug(message, args...)
}

func (l *Logger) Warn(message string, args ...any) {
	l.logger.Warn(message, args...)
}

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...), level: l.level}
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level string) error {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.Set(slogLevel)
	return nil
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// ParseLevel maps a config log level to slog.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}

// New creates a new logger instance
func New(level string) (*Logger, error) {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return NewLogger(slogLevel), nil
}

// Discard returns a logger that drops everything. Used by tests and library callers without logging.
func Discard() *Logger {
	return newLoggerTo(io.Discard, slog.LevelError+4)
}

// Common error codes
const (
	ErrCodeFileNotFound      = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable   = "FILE_NOT_READABLE"
	ErrCodeFileTooLarge      = "FILE_TOO_LARGE"
	ErrCodeInvalidFormat     = "INVALID_FORMAT"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeMissingAPIKey     = "MISSING_API_KEY"
	ErrCodeNetworkTimeout    = "NETWORK_TIMEOUT"
	ErrCodeInvalidConfig     = "INVALID_CONFIG"
	ErrCodeEmptyInput        = "EMPTY_INPUT"
	ErrCodeDocumentFormat    = "DOCUMENT_FORMAT"
	ErrCodeNoSections        = "NO_SECTIONS"
	ErrCodeAnnotationFailed  = "ANNOTATION_FAILED"
	ErrCodeExtractionFailed  = "EXTRACTION_FAILED"
	ErrCodeExtractorOpen     = "EXTRACTOR_UNAVAILABLE"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeDatabase          = "DATABASE_ERROR"
	ErrCodeCache             = "CACHE_ERROR"
	ErrCodeObjectStorage     = "OBJECT_STORAGE_ERROR"
	ErrCodeSecretUnavailable = "SECRET_UNAVAILABLE"
)
