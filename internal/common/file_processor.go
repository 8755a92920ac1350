package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger      *errors.Logger
	maxFileSize int64
}

// NewFileProcessor creates a file processor. A maxFileSize of zero disables the size check.
func NewFileProcessor(logger *errors.Logger, maxFileSize int64) *FileProcessor {
	if logger == nil {
		logger = errors.Discard()
	}
	return &FileProcessor{logger: logger, maxFileSize: maxFileSize}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	var r io.Reader = file
	if fp.maxFileSize > 0 {
		r = io.LimitReader(file, fp.maxFileSize+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	if fp.maxFileSize > 0 && int64(len(content)) > fp.maxFileSize {
		return nil, errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("File %s exceeds the %s limit", filename, utils.FormatFileSize(fp.maxFileSize)), nil)
	}

	return content, nil
}

// ReadDocument validates and reads a resume file for extraction.
func (fp *FileProcessor) ReadDocument(filename string) (extract.Document, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return extract.Document{}, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	if !utils.IsSupportedDocument(filename) {
		fp.logger.Warn("File extension is not a known resume format, sniffing content",
			"filename", filename)
	}

	data, err := fp.ReadFile(filename)
	if err != nil {
		return extract.Document{}, err
	}

	fp.logger.Debug("Read resume file",
		"filename", filename,
		"size", utils.FormatFileSize(int64(len(data))))

	return extract.Document{
		Name:        filepath.Base(filename),
		ContentType: utils.ContentType(filename, data),
		Data:        data,
	}, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	return nil
}
