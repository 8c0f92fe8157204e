package rendering

import (
	"context"
	"encoding/base64"
	"log"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/jonathan/resume-tracker/internal/layout"
	"github.com/jonathan/resume-tracker/internal/types"
)

// DefaultBrowserTimeout bounds a single measure or print call.
const DefaultBrowserTimeout = 30 * time.Second

// pointsPerInch converts layout points to the inches Chrome's print API expects.
const pointsPerInch = 72.0

// measureScript returns the height of every section in points (CSS px * 0.75).
const measureScript = `Array.from(document.querySelectorAll('[data-section]'))` +
	`.map(e => e.getBoundingClientRect().height * 0.75)`

// Browser is a long-lived headless Chrome instance. Each call runs in a new tab.
// Requires Chrome/Chromium to be installed on the system.
type Browser struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	timeout       time.Duration
	closeOnce     sync.Once
}

// NewBrowser starts headless Chrome.
func NewBrowser(timeout time.Duration) (*Browser, error) {
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run launches the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, &BrowserError{Message: "failed to start chrome", Cause: err}
	}

	return &Browser{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		timeout:       timeout,
	}, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (b *Browser) Close() {
	b.closeOnce.Do(func() {
		b.browserCancel()
		b.allocCancel()
	})
}

// run executes actions against html loaded in a fresh tab.
func (b *Browser) run(ctx context.Context, html string, actions ...chromedp.Action) error {
	dataURL := "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(html))
	return b.navigate(ctx, dataURL, actions...)
}

// navigate opens url in a fresh tab and executes actions once the body is
// ready. The tab is closed when ctx is done, the timeout passes or the
// actions finish.
func (b *Browser) navigate(ctx context.Context, url string, actions ...chromedp.Action) error {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	defer cancel()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	all := append([]chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}, actions...)

	if err := chromedp.Run(tabCtx, all...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// PageHTML loads url and returns the document's HTML after its scripts ran,
// for job boards that render postings client side.
func (b *Browser) PageHTML(ctx context.Context, url string) (string, error) {
	var html string
	err := b.navigate(ctx, url,
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", &BrowserError{Message: "failed to load page", Cause: err}
	}
	return html, nil
}

// BrowserMeasurer measures sections by rendering them in headless Chrome.
type BrowserMeasurer struct {
	browser *Browser
	page    layout.Page
	theme   types.ColorTheme
}

// NewBrowserMeasurer creates a layout.Measurer backed by browser.
func NewBrowserMeasurer(browser *Browser, page layout.Page, theme types.ColorTheme) *BrowserMeasurer {
	return &BrowserMeasurer{browser: browser, page: page, theme: theme}
}

// Measure implements layout.Measurer. Sections are rendered without spacing so
// each height is the section's own extent.
func (m *BrowserMeasurer) Measure(ctx context.Context, sections []layout.Section, scale float64) ([]float64, error) {
	html, err := RenderSections(sections, m.page, Style{Scale: scale, Theme: m.theme})
	if err != nil {
		return nil, err
	}

	var heights []float64
	if err := m.browser.run(ctx, html, chromedp.Evaluate(measureScript, &heights)); err != nil {
		return nil, &BrowserError{Message: "failed to measure sections", Cause: err}
	}
	return heights, nil
}

// PrintPDF renders the plan and prints it to a PDF sized to the plan's page.
func PrintPDF(ctx context.Context, browser *Browser, plan *layout.Plan) ([]byte, error) {
	html, err := RenderHTML(plan)
	if err != nil {
		return nil, err
	}

	var pdf []byte
	err = browser.run(ctx, html, chromedp.ActionFunc(func(ctx context.Context) error {
		data, _, err := page.PrintToPDF().
			WithPaperWidth(plan.Page.Width / pointsPerInch).
			WithPaperHeight(plan.Page.Height / pointsPerInch).
			WithMarginTop(0).
			WithMarginBottom(0).
			WithMarginLeft(0).
			WithMarginRight(0).
			WithPreferCSSPageSize(true).
			WithPrintBackground(true).
			Do(ctx)
		if err != nil {
			return err
		}
		pdf = data
		return nil
	}))
	if err != nil {
		return nil, &BrowserError{Message: "failed to print pdf", Cause: err}
	}

	log.Printf("[rendering] printed %d byte pdf (scale %.2f, fits %v)", len(pdf), plan.Scale, plan.Fits)
	return pdf, nil
}
