package validation

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blankPDF builds a minimal, well-formed PDF with the given number of empty pages.
func blankPDF(pages int) []byte {
	var buf bytes.Buffer
	offsets := []int{}
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	writeObj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for i := 0; i < pages; i++ {
		writeObj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestCountPDFPages(t *testing.T) {
	count, err := CountPDFPages(blankPDF(2))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCountPDFPages_Invalid(t *testing.T) {
	_, err := CountPDFPages(nil)
	assert.Error(t, err)

	_, err = CountPDFPages([]byte("not a pdf"))
	var validationErr *Error
	assert.ErrorAs(t, err, &validationErr)
}

func TestCheckPageCount(t *testing.T) {
	report, err := CheckPageCount(blankPDF(1), 0)
	require.NoError(t, err)
	assert.Equal(t, &PageReport{Pages: 1, MaxPages: MaxResumePages, Overflow: false}, report)

	report, err = CheckPageCount(blankPDF(3), 1)
	require.NoError(t, err)
	assert.True(t, report.Overflow)
	assert.Equal(t, 3, report.Pages)
}
