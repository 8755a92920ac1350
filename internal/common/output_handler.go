package common

import (
	"fmt"
	"io"
	"os"

	"resumescore/internal/errors"
	"resumescore/internal/formatters"
)

// CommandConfig holds common configuration for commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler handles formatting and writing output
type OutputHandler struct {
	fileProcessor *FileProcessor
	registry      *formatters.FormatterRegistry
	stdout        io.Writer
	logger        *errors.Logger
}

func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	if logger == nil {
		logger = errors.Discard()
	}
	return &OutputHandler{
		fileProcessor: NewFileProcessor(logger, 0),
		registry:      formatters.GlobalRegistry,
		stdout:        os.Stdout,
		logger:        logger,
	}
}

// HandleOutput formats data and writes it to the configured file, or stdout.
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	if err := oh.fileProcessor.ValidateOutputFile(config.OutputFile); err != nil {
		return err
	}

	output, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	if config.OutputFile == "" {
		_, err = fmt.Fprint(oh.stdout, output)
		return err
	}

	if err := oh.fileProcessor.WriteFile(config.OutputFile, output); err != nil {
		return err
	}
	oh.logger.Info("Output written successfully",
		"file", config.OutputFile, "format", config.OutputFormat)
	return nil
}
