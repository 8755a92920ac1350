package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	textExtensions     = []string{".txt", ".md", ".markdown", ".text"}
	documentExtensions = append([]string{".pdf"}, textExtensions...)
	pdfMagic           = []byte("%PDF-")
)

// ValidateInputFile checks if a file exists, is a regular file and is readable
func ValidateInputFile(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filename)
		}
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", filename, err)
	}

	return nil
}

// ValidateOutputFile checks if the output file path is valid, creating its directory if needed
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// GetFileExtension returns the file extension in lowercase
func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func IsTextFile(filename string) bool {
	return slices.Contains(textExtensions, GetFileExtension(filename))
}

// IsSupportedDocument reports whether the extension is one the extractors handle.
func IsSupportedDocument(filename string) bool {
	return slices.Contains(documentExtensions, GetFileExtension(filename))
}

// LooksLikePDF reports whether data starts with the PDF header.
func LooksLikePDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// ContentType guesses the MIME type of a local document from its extension and header.
func ContentType(filename string, data []byte) string {
	switch {
	case GetFileExtension(filename) == ".pdf", LooksLikePDF(data):
		return "application/pdf"
	case GetFileExtension(filename) == ".md", GetFileExtension(filename) == ".markdown":
		return "text/markdown"
	case IsTextFile(filename):
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
