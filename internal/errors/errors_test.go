package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewEmptyInputError(),
			want: "EMPTY_INPUT: resume text is empty",
		},
		{
			name: "with cause",
			err:  NewDocumentFormatError("not a pdf", fmt.Errorf("bad header")),
			want: "DOCUMENT_FORMAT: not a pdf (caused by: bad header)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestHasCodeWalksWrappedErrors(t *testing.T) {
	inner := NewDocumentFormatError("unreadable", nil)
	outer := NewIOError(ErrCodeFileNotReadable, "read upload", inner)
	wrapped := fmt.Errorf("handler: %w", outer)

	assert.True(t, IsDocumentFormat(wrapped))
	assert.True(t, HasCode(wrapped, ErrCodeFileNotReadable))
	assert.False(t, IsEmptyInput(wrapped))
	assert.False(t, IsNotFound(fmt.Errorf("plain")))
	assert.False(t, HasCode(nil, ErrCodeConflict))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerTo(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	assert.Zero(t, buf.Len())

	require.NoError(t, logger.SetLevel("debug"))
	logger.Debug("shown")
	assert.Contains(t, buf.String(), "shown")

	assert.Error(t, logger.SetLevel("loud"))
	assert.Equal(t, slog.LevelDebug, logger.Level())
}

func TestLogErrorUnpacksAppError(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerTo(&buf, slog.LevelInfo)

	err := NewDocumentFormatError("broken", nil).WithContext("file", "cv.pdf")
	logger.LogError(fmt.Errorf("wrap: %w", err), "extraction failed", "request_id", "r1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "extraction failed", record["msg"])
	assert.Equal(t, "DOCUMENT_FORMAT", record["error_code"])
	assert.Equal(t, "document", record["error_type"])
	assert.Equal(t, "cv.pdf", record["file"])
	assert.Equal(t, "r1", record["request_id"])
}
