package common

import (
	"fmt"
	"slices"

	"resumescore/internal/formatters"
)

// ValidateOutputFormat checks format against the configured formats and the
// formats a renderer exists for. An empty configured list allows every
// renderable format.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) > 0 && !slices.Contains(supportedFormats, format) {
		return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
			format, supportedFormats)
	}

	if !slices.Contains(formatters.GlobalRegistry.GetSupportedFormats(), format) {
		return fmt.Errorf("no renderer for output format '%s'", format)
	}
	return nil
}
