package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

func (e *Extractor) extractPDF(data []byte) (pages int, text string, err error) {
	pages, err = api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, "", fmt.Errorf("%w: read pdf: %w", ErrExtract, err)
	}
	if e.MaxPages > 0 && pages > e.MaxPages {
		return pages, "", fmt.Errorf("%w: %d pages, limit %d", ErrTooManyPages, pages, e.MaxPages)
	}

	text, err = pdfText(data)
	if err != nil {
		return pages, "", err
	}
	return pages, text, nil
}

// pdfText reads the text layer. The reader panics on some malformed
// content streams, so panics are converted to ErrExtract.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: pdf text: %v", ErrExtract, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %w", ErrExtract, err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: pdf text: %w", ErrExtract, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: pdf text: %w", ErrExtract, err)
	}
	return buf.String(), nil
}
