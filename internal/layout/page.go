package layout

// Page describes the printable page in PostScript points (1/72 inch).
type Page struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	MarginTop    float64 `json:"marginTop"`
	MarginBottom float64 `json:"marginBottom"`
	MarginLeft   float64 `json:"marginLeft"`
	MarginRight  float64 `json:"marginRight"`
}

// LetterPage is US Letter with half-inch margins.
func LetterPage() Page {
	return Page{
		Width:        612,
		Height:       792,
		MarginTop:    36,
		MarginBottom: 36,
		MarginLeft:   36,
		MarginRight:  36,
	}
}

// Available returns the vertical space between the top and bottom margins.
func (p Page) Available() float64 {
	return p.Height - p.MarginTop - p.MarginBottom
}

// ContentWidth returns the horizontal space between the side margins.
func (p Page) ContentWidth() float64 {
	return p.Width - p.MarginLeft - p.MarginRight
}
