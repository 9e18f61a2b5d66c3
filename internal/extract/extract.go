// Package extract pulls plain text out of uploaded file content.
package extract

import (
	"bytes"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const mimePDF = "application/pdf"

// MediaType returns the lower-cased media type without parameters.
func MediaType(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mt
}

// IsPDF reports whether mimeType names a PDF.
func IsPDF(mimeType string) bool {
	return MediaType(mimeType) == mimePDF
}

// Supported reports whether Text can handle mimeType.
func Supported(mimeType string) bool {
	mt := MediaType(mimeType)
	return mt == mimePDF || strings.HasPrefix(mt, "text/")
}

// Text returns the plain text of data. PDFs yield the text of every page in
// reading order, one page per line block. text/* content must be UTF-8 and is
// returned unchanged.
func Text(mimeType string, data []byte) (string, error) {
	mt := MediaType(mimeType)

	switch {
	case mt == mimePDF:
		return pdfText(data)
	case strings.HasPrefix(mt, "text/"):
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrMalformed, mt)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mt)
	}
}

func pdfText(data []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", ErrMalformed, i, err)
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}

	return strings.Join(pages, "\n"), nil
}
