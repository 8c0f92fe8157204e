// Package validation checks generated resume PDFs against page constraints.
package validation

import (
	"bytes"
	"log"

	"github.com/ledongthuc/pdf"
)

// MaxResumePages is the page budget the layout engine aims for.
const MaxResumePages = 1

// CountPDFPages counts the number of pages in an in-memory PDF.
func CountPDFPages(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, &Error{Message: "pdf is empty"}
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, &Error{Message: "failed to read pdf", Cause: err}
	}
	return reader.NumPage(), nil
}

// PageReport describes how a rendered PDF compares to the page budget.
type PageReport struct {
	Pages    int  `json:"pages"`
	MaxPages int  `json:"maxPages"`
	Overflow bool `json:"overflow"`
}

// CheckPageCount counts the pages of a rendered resume. Overflow is reported,
// not treated as an error: a long resume still renders.
func CheckPageCount(data []byte, maxPages int) (*PageReport, error) {
	if maxPages <= 0 {
		maxPages = MaxResumePages
	}
	pages, err := CountPDFPages(data)
	if err != nil {
		return nil, err
	}
	report := &PageReport{Pages: pages, MaxPages: maxPages, Overflow: pages > maxPages}
	if report.Overflow {
		log.Printf("[validation] resume overflows: %d pages (max %d)", pages, maxPages)
	}
	return report, nil
}
