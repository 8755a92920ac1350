package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	"resumescore/internal/errors"
)

// PlainTextExtractor accepts UTF-8 text documents as they are.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(_ context.Context, doc Document) (string, error) {
	if !utf8.Valid(doc.Data) {
		return "", errors.NewDocumentFormatError("text document is not valid UTF-8", nil).
			WithContext("file", doc.Name)
	}
	return strings.TrimPrefix(string(doc.Data), "\ufeff"), nil
}
