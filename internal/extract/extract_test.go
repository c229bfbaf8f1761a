package extract_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/JaimeStill/prfaq/internal/extract"
)

// buildPDF writes a minimal PDF with one Helvetica text line per page and a
// correct cross-reference table.
func buildPDF(pages []string) []byte {
	n := len(pages)
	var objs []string

	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> >>",
			strings.Join(kids, " "), n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)
	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)

	return buf.Bytes()
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	w.Write([]byte(documentXML))
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const wordXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Solar</w:t></w:r><w:r><w:t xml:space="preserve"> lending</w:t></w:r></w:p>
<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>line</w:t></w:r></w:p>
</w:body>
</w:document>`

func TestKind(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		want        string
		wantErr     error
	}{
		{"pdf content type", "x.bin", "application/pdf", nil, extract.KindPDF, nil},
		{"markdown with charset", "x", "text/markdown; charset=utf-8", nil, extract.KindText, nil},
		{"docx content type", "x", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", nil, extract.KindDOCX, nil},
		{"docx extension", "brief.DOCX", "application/octet-stream", nil, extract.KindDOCX, nil},
		{"md extension", "notes.md", "", nil, extract.KindText, nil},
		{"sniffed pdf", "upload", "", []byte("%PDF-1.4\n"), extract.KindPDF, nil},
		{"sniffed text", "upload", "", []byte("plain words"), extract.KindText, nil},
		{"image rejected", "logo.png", "image/png", []byte("\x89PNG\r\n\x1a\n"), "", extract.ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extract.Kind(tt.filename, tt.contentType, tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error: got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("kind: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractText(t *testing.T) {
	e := extract.New(0)
	doc, err := e.Extract("notes.txt", "text/plain", []byte("  reference notes \n"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Text != "reference notes" {
		t.Errorf("text: got %q", doc.Text)
	}
	if doc.Kind != extract.KindText {
		t.Errorf("kind: got %q", doc.Kind)
	}
}

func TestExtractEmptyAndInvalid(t *testing.T) {
	e := extract.New(0)

	if _, err := e.Extract("blank.txt", "text/plain", []byte("   \n\t")); !errors.Is(err, extract.ErrEmpty) {
		t.Errorf("blank: got %v, want ErrEmpty", err)
	}
	if _, err := e.Extract("bad.txt", "text/plain", []byte{0xff, 0xfe, 0xfd}); !errors.Is(err, extract.ErrExtract) {
		t.Errorf("invalid utf-8: got %v, want ErrExtract", err)
	}
	if _, err := e.Extract("broken.pdf", "application/pdf", []byte("%PDF-1.4 not really")); !errors.Is(err, extract.ErrExtract) {
		t.Errorf("broken pdf: got %v, want ErrExtract", err)
	}
	if _, err := e.Extract("broken.docx", "", []byte("not a zip")); !errors.Is(err, extract.ErrExtract) {
		t.Errorf("broken docx: got %v, want ErrExtract", err)
	}
}

func TestExtractDOCX(t *testing.T) {
	e := extract.New(0)
	doc, err := e.Extract("brief.docx", "", buildDOCX(t, wordXML))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "Solar lending\nSecond\tline"
	if doc.Text != want {
		t.Errorf("text: got %q, want %q", doc.Text, want)
	}
}

func TestExtractDOCXMissingBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.Create("word/styles.xml")
	zw.Close()

	if _, err := extract.New(0).Extract("x.docx", "", buf.Bytes()); !errors.Is(err, extract.ErrExtract) {
		t.Errorf("got %v, want ErrExtract", err)
	}
}

func TestExtractPDF(t *testing.T) {
	data := buildPDF([]string{"Hello reference", "Second page"})

	doc, err := extract.New(10).Extract("ref.pdf", "application/pdf", data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Pages != 2 {
		t.Errorf("pages: got %d, want 2", doc.Pages)
	}
	if !strings.Contains(doc.Text, "Hello") {
		t.Errorf("text: got %q, want it to contain Hello", doc.Text)
	}
}

func TestExtractPDFPageLimit(t *testing.T) {
	data := buildPDF([]string{"one", "two", "three"})

	_, err := extract.New(2).Extract("ref.pdf", "application/pdf", data)
	if !errors.Is(err, extract.ErrTooManyPages) {
		t.Errorf("got %v, want ErrTooManyPages", err)
	}
}

func TestCombine(t *testing.T) {
	single := []*extract.Document{{Filename: "a.txt", Text: "alpha"}}
	if got := extract.Combine(single); got != "alpha" {
		t.Errorf("single: got %q", got)
	}

	multi := []*extract.Document{
		{Filename: "a.txt", Text: "alpha"},
		{Filename: "b.md", Text: "beta"},
	}
	want := "### a.txt\n\nalpha\n\n### b.md\n\nbeta"
	if got := extract.Combine(multi); got != want {
		t.Errorf("multi: got %q, want %q", got, want)
	}
}
