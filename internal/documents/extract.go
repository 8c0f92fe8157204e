// Package documents extracts plain text from uploaded attachments so a saved
// job description can be analyzed like pasted text.
package documents

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jonathan/resume-tracker/internal/keywords"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
	MimeHTML = "text/html"
)

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

// UnsupportedTypeError is returned for attachments whose type has no extractor.
type UnsupportedTypeError struct {
	MimeType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.MimeType)
}

// DetectMimeType returns the declared type with parameters stripped, falling
// back to the file extension when the declared type is empty or generic.
func DetectMimeType(declared, filename string) string {
	mime := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime != "" && mime != "application/octet-stream" {
		return mime
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	case ".txt", ".md":
		return MimeText
	case ".html", ".htm":
		return MimeHTML
	}
	if mime == "" {
		return "application/octet-stream"
	}
	return mime
}

// ExtractText returns the readable text of an attachment.
func ExtractText(mime string, data []byte) (string, error) {
	switch mime {
	case MimeText:
		return keywords.NormalizeDescription(string(data)), nil
	case MimeHTML:
		return keywords.NormalizeDescription(string(data)), nil
	case MimePDF:
		return extractPDFText(data)
	case MimeDOCX:
		return extractDocxText(data)
	default:
		return "", &UnsupportedTypeError{MimeType: mime}
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		// Pages whose content stream can't be decoded are skipped
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(content)
		text.WriteString("\n")
	}
	return keywords.NormalizeDescription(text.String()), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return DocxXMLToText(doc.Editable().GetContent()), nil
}

// DocxXMLToText strips WordprocessingML markup, keeping one line per paragraph.
func DocxXMLToText(xml string) string {
	text := docxParagraphEnd.ReplaceAllString(xml, "\n")
	text = xmlTag.ReplaceAllString(text, "")
	text = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'").Replace(text)
	return keywords.NormalizeDescription(text)
}
