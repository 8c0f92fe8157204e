package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMimeType(t *testing.T) {
	tests := []struct {
		declared string
		filename string
		want     string
	}{
		{"application/pdf", "x.bin", MimePDF},
		{"text/plain; charset=utf-8", "x", MimeText},
		{"", "Job Description.PDF", MimePDF},
		{"application/octet-stream", "offer.docx", MimeDOCX},
		{"", "posting.htm", MimeHTML},
		{"", "photo.png", "application/octet-stream"},
		{"image/png", "photo.png", "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.declared+"|"+tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMimeType(tt.declared, tt.filename))
		})
	}
}

func TestExtractText_PlainAndHTML(t *testing.T) {
	text, err := ExtractText(MimeText, []byte("  We need   React\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "We need React", text)

	text, err = ExtractText(MimeHTML, []byte("<ul><li>Go</li><li>Docker</li></ul>"))
	require.NoError(t, err)
	assert.Equal(t, "Go\nDocker", text)
}

func TestExtractText_Unsupported(t *testing.T) {
	_, err := ExtractText("image/png", []byte{0x89})

	var unsupported *UnsupportedTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "image/png", unsupported.MimeType)
}

func TestExtractText_CorruptPDF(t *testing.T) {
	_, err := ExtractText(MimePDF, []byte("garbage"))
	assert.Error(t, err)
}

func TestDocxXMLToText(t *testing.T) {
	xml := `<w:document><w:body>` +
		`<w:p><w:r><w:t>Senior Engineer</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Kubernetes &amp; Docker</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	assert.Equal(t, "Senior Engineer\nKubernetes & Docker", DocxXMLToText(xml))
}
