package layout

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"
)

// Nominal type sizes in points at scale 1.0.
const (
	NameFontSize    = 20.0
	HeadingFontSize = 12.0
	BodyFontSize    = 10.0
	LineHeight      = 1.3
)

const (
	// averageCharWidth is the mean glyph advance as a fraction of the font size
	averageCharWidth = 0.5
	// bulletIndent is the left indent of a bullet line in points
	bulletIndent = 12.0
	// entryGap separates entries within a section
	entryGap = 4.0
)

// Measurer returns the rendered height in points of each section at the given
// scale. The result has one height per section, in the same order.
type Measurer interface {
	Measure(ctx context.Context, sections []Section, scale float64) ([]float64, error)
}

// TextMeasurer estimates heights from font metrics without rendering: every
// block of text is wrapped at an average glyph width and each line costs one
// line height.
type TextMeasurer struct {
	Page Page
}

// NewTextMeasurer returns a TextMeasurer for page.
func NewTextMeasurer(page Page) *TextMeasurer {
	return &TextMeasurer{Page: page}
}

// Measure implements Measurer.
func (m *TextMeasurer) Measure(_ context.Context, sections []Section, scale float64) ([]float64, error) {
	heights := make([]float64, len(sections))
	for i, s := range sections {
		heights[i] = m.sectionHeight(s, scale)
	}
	return heights, nil
}

func (m *TextMeasurer) sectionHeight(s Section, scale float64) float64 {
	width := m.Page.ContentWidth()
	body := BodyFontSize * scale

	if s.Kind == SectionHeader {
		h := m.block(s.Name, NameFontSize*scale, width)
		h += m.block(s.Contact, body, width)
		h += m.block(s.Summary, body, width)
		return h
	}

	h := m.block(s.Title, HeadingFontSize*scale, width)
	if s.Kind == SectionSkills {
		return h + m.block(strings.Join(s.Skills, ", "), body, width)
	}

	for i, e := range s.Entries {
		if i > 0 {
			h += entryGap * scale
		}
		h += m.block(e.Title, body, width)
		h += m.block(joinNonEmpty(" | ", e.Organization, e.Location, e.Dates), body, width)
		h += m.block(e.Detail, body, width)
		for _, b := range e.Bullets {
			h += m.block(b, body, width-bulletIndent*scale)
		}
	}
	return h
}

// block returns the height of text wrapped into width at fontSize.
// Empty text takes no space.
func (m *TextMeasurer) block(text string, fontSize, width float64) float64 {
	text = strings.TrimSpace(text)
	if text == "" || width <= 0 {
		return 0
	}
	lines := 0
	for _, paragraph := range strings.Split(text, "\n") {
		chars := utf8.RuneCountInString(paragraph)
		n := int(math.Ceil(float64(chars) * fontSize * averageCharWidth / width))
		lines += max(n, 1)
	}
	return float64(lines) * fontSize * LineHeight
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
