package fetch

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MinContentLength is the shortest description accepted from static HTML
// before the page is re-rendered with the configured PageRenderer.
const MinContentLength = 500

// Posting is the description text of one job posting.
type Posting struct {
	URL      string   `json:"url"`
	Platform Platform `json:"platform"`
	Title    string   `json:"title"`
	Text     string   `json:"text"`
}

// ShouldRender reports whether text is too short to be a real description,
// which usually means the page is rendered client side.
func ShouldRender(text string) bool {
	return len(strings.TrimSpace(text)) < MinContentLength
}

// JobPosting downloads a posting and extracts its title and description with
// the selectors of the detected job board.
func JobPosting(ctx context.Context, rawURL string, opts *Options) (*Posting, error) {
	if opts == nil {
		opts = &Options{}
	}
	page, err := Get(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}

	platform := DetectPlatform(rawURL)
	posting, err := parsePosting(page.HTML, platform)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to parse posting", Cause: err}
	}

	if ShouldRender(posting.Text) && opts.Renderer != nil {
		log.Printf("[fetch] %s returned %d characters, rendering in browser", rawURL, len(posting.Text))
		html, err := opts.Renderer.PageHTML(ctx, rawURL)
		if err != nil {
			log.Printf("[fetch] browser rendering failed, keeping static text: %v", err)
		} else if rendered, err := parsePosting(html, platform); err == nil && len(rendered.Text) > len(posting.Text) {
			if rendered.Title == "" {
				rendered.Title = posting.Title
			}
			posting = rendered
		}
	}

	if strings.TrimSpace(posting.Text) == "" {
		return nil, &Error{URL: rawURL, Message: "no description text found"}
	}
	posting.URL = rawURL
	return posting, nil
}

func parsePosting(html string, platform Platform) (*Posting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	return &Posting{
		Platform: platform,
		Title:    strings.Join(strings.Fields(title), " "),
		Text:     mainText(doc, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform)),
	}, nil
}
