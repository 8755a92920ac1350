package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"resumescore/internal/errors"
)

// PDFExtractor reads PDF text in-process.
type PDFExtractor struct{}

func (PDFExtractor) Extract(ctx context.Context, doc Document) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = errors.NewDocumentFormatError("unreadable PDF document", fmt.Errorf("pdf parser: %v", r)).
				WithContext("file", doc.Name)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return "", errors.NewDocumentFormatError("unreadable PDF document", err).
			WithContext("file", doc.Name)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", errors.NewDocumentFormatError(fmt.Sprintf("unreadable PDF page %d", i), err).
				WithContext("file", doc.Name)
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(word.S)
			}
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
