// Package extract turns uploaded reference documents into plain text for the
// PR/FAQ workflow. PDF, DOCX, plain text, and markdown are supported.
package extract

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	ErrUnsupported  = errors.New("unsupported document type")
	ErrTooManyPages = errors.New("document exceeds page limit")
	ErrEmpty        = errors.New("document contains no text")
	ErrExtract      = errors.New("text extraction failed")
)

// Document kinds.
const (
	KindPDF  = "pdf"
	KindDOCX = "docx"
	KindText = "text"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Document is the extracted text of one upload.
type Document struct {
	Filename string `json:"filename"`
	Kind     string `json:"kind"`
	Pages    int    `json:"pages,omitempty"`
	Text     string `json:"text"`
}

// Extractor extracts text, rejecting PDFs longer than MaxPages.
// A zero MaxPages disables the check.
type Extractor struct {
	MaxPages int
}

// New creates an Extractor.
func New(maxPages int) *Extractor {
	return &Extractor{MaxPages: maxPages}
}

// Extract returns the text of data. The kind is decided from contentType,
// then the filename extension, then content sniffing.
func (e *Extractor) Extract(filename, contentType string, data []byte) (*Document, error) {
	kind, err := Kind(filename, contentType, data)
	if err != nil {
		return nil, err
	}

	doc := &Document{Filename: filename, Kind: kind}

	switch kind {
	case KindPDF:
		pages, text, err := e.extractPDF(data)
		if err != nil {
			return nil, err
		}
		doc.Pages = pages
		doc.Text = text
	case KindDOCX:
		text, err := docxText(data)
		if err != nil {
			return nil, err
		}
		doc.Text = text
	case KindText:
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrExtract, filename)
		}
		doc.Text = string(data)
	}

	doc.Text = strings.TrimSpace(doc.Text)
	if doc.Text == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, filename)
	}
	return doc, nil
}

// Kind classifies an upload.
func Kind(filename, contentType string, data []byte) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	switch ct {
	case "application/pdf":
		return KindPDF, nil
	case docxContentType:
		return KindDOCX, nil
	case "text/plain", "text/markdown", "text/x-markdown":
		return KindText, nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF, nil
	case ".docx":
		return KindDOCX, nil
	case ".txt", ".md", ".markdown":
		return KindText, nil
	}

	sniffed := http.DetectContentType(data)
	switch {
	case sniffed == "application/pdf":
		return KindPDF, nil
	case strings.HasPrefix(sniffed, "text/plain"):
		return KindText, nil
	}

	return "", fmt.Errorf("%w: %s (%s)", ErrUnsupported, filename, sniffed)
}

// Combine joins documents into one reference text, each under a heading
// naming its file.
func Combine(docs []*Document) string {
	if len(docs) == 1 {
		return docs[0].Text
	}

	var sb strings.Builder
	for i, d := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "### %s\n\n%s", d.Filename, d.Text)
	}
	return sb.String()
}
