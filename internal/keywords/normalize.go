package keywords

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	htmlTagPattern     = regexp.MustCompile(`(?i)<\s*/?\s*(p|div|br|li|ul|ol|span|h[1-6]|strong|em|b|i|section|article|body|html)\b[^>]*>`)
	inlineSpacePattern = regexp.MustCompile(`[ \t]+`)
	blankRunPattern    = regexp.MustCompile(`\n{3,}`)
)

// LooksLikeHTML reports whether text appears to contain HTML markup, as when
// a description is copied straight out of a job board page.
func LooksLikeHTML(text string) bool {
	return htmlTagPattern.MatchString(text)
}

// NormalizeDescription converts a pasted job description into clean plain
// text. HTML input is reduced to its visible text first.
func NormalizeDescription(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	text := raw
	if LooksLikeHTML(raw) {
		if extracted, err := htmlToText(raw); err == nil {
			text = extracted
		}
	}
	return cleanText(text)
}

// htmlToText drops non-content elements and returns block-separated text.
func htmlToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, nav, footer").Remove()

	// Block elements become line breaks so adjacent items don't run together.
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, section, article").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return doc.Text(), nil
}

// cleanText normalizes line endings and whitespace while preserving line structure.
func cleanText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpacePattern.ReplaceAllString(line, " "))
	}
	result := strings.Join(lines, "\n")
	result = blankRunPattern.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}
