// Package textextract pulls plain text out of uploaded files. Extraction
// keeps paragraph boundaries where the format has them, since downstream
// chunking prefers to split on paragraph breaks.
package textextract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedType reports a file type no extractor handles.
var ErrUnsupportedType = errors.New("unsupported file type")

type ExtractedText struct {
	Content  string
	Pages    int
	Metadata map[string]string
}

func Extract(data io.ReaderAt, size int64, fileType string) (*ExtractedText, error) {
	switch normalizeType(fileType) {
	case "pdf":
		return extractPDF(data, size)
	case "docx":
		return extractDOCX(data, size)
	case "txt":
		return extractPlain(data, size, "txt")
	case "md":
		return extractPlain(data, size, "md")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, fileType)
	}
}

func SupportedTypes() []string {
	return []string{".pdf", ".docx", ".txt", ".md"}
}

func normalizeType(fileType string) string {
	switch strings.ToLower(strings.TrimSpace(fileType)) {
	case ".pdf", "pdf", "application/pdf":
		return "pdf"
	case ".docx", "docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	case ".txt", "txt", "text/plain":
		return "txt"
	case ".md", "md", "markdown", "text/markdown":
		return "md"
	default:
		return ""
	}
}

func extractPDF(data io.ReaderAt, size int64) (*ExtractedText, error) {
	reader, err := pdf.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue // skip unreadable pages, keep the rest
		}
		buf.WriteString(text)
		buf.WriteString("\n\n")
	}

	return &ExtractedText{
		Content:  strings.TrimSpace(buf.String()),
		Pages:    numPages,
		Metadata: map[string]string{"type": "pdf"},
	}, nil
}

func extractDOCX(data io.ReaderAt, size int64) (*ExtractedText, error) {
	reader, err := zip.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	var content string
	for _, f := range reader.File {
		if filepath.Base(f.Name) != "document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open document.xml: %w", err)
		}
		raw, readErr := io.ReadAll(rc)
		rc.Close()
		if readErr != nil {
			return nil, fmt.Errorf("read document.xml: %w", readErr)
		}
		content = docxToText(string(raw))
		break
	}

	return &ExtractedText{
		Content:  content,
		Pages:    1,
		Metadata: map[string]string{"type": "docx"},
	}, nil
}

func extractPlain(data io.ReaderAt, size int64, kind string) (*ExtractedText, error) {
	buf := make([]byte, size)
	if _, err := data.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read %s: %w", kind, err)
	}
	return &ExtractedText{
		Content:  string(bytes.TrimSpace(buf)),
		Pages:    1,
		Metadata: map[string]string{"type": kind},
	}, nil
}

// docxToText strips WordprocessingML markup while turning paragraph and
// line-break elements into real newlines.
func docxToText(xml string) string {
	xml = strings.ReplaceAll(xml, "</w:p>", "\n\n")
	xml = strings.ReplaceAll(xml, "<w:br/>", "\n")

	var out strings.Builder
	inTag := false
	for _, r := range xml {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			out.WriteRune(r)
		}
	}

	lines := strings.Split(out.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
