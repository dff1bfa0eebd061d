// Package pdf converts rendered documents into paginated files with a
// headless Chrome, and provides the browser print flow used when that
// conversion is unavailable.
package pdf

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/livefir/docpreview"
)

const (
	// A4 paper size in inches
	paperWidth  = 8.27
	paperHeight = 11.69

	// 12mm on every edge
	pageMargin = 0.47

	DefaultTimeout = 60 * time.Second
)

// Options configures a ChromeConverter
type Options struct {
	// ExecPath is the Chrome executable. Empty uses chromedp's lookup.
	ExecPath string

	// RemoteURL attaches to a running browser's DevTools endpoint instead
	// of launching one
	RemoteURL string

	Timeout time.Duration

	// Debug forwards chromedp protocol logs to the standard logger
	Debug bool
}

// ChromeConverter prints documents to PDF through headless Chrome. Every
// conversion runs in a new browser tab (and, unless RemoteURL is set, a new
// browser process), so concurrent calls share no rendering state.
type ChromeConverter struct {
	opts Options
}

var _ docpreview.Converter = (*ChromeConverter)(nil)

// NewChromeConverter creates a converter. ExecPath falls back to the
// CHROME_PATH environment variable.
func NewChromeConverter(opts Options) *ChromeConverter {
	if opts.ExecPath == "" {
		opts.ExecPath = os.Getenv("CHROME_PATH")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &ChromeConverter{opts: opts}
}

// PaperSize returns the sheet dimensions in inches for the orientation
func PaperSize(o docpreview.Orientation) (width, height float64) {
	if o == docpreview.Landscape {
		return paperHeight, paperWidth
	}
	return paperWidth, paperHeight
}

func (c *ChromeConverter) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.RemoteURL != "" {
		return chromedp.NewRemoteAllocator(ctx, c.opts.RemoteURL)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.WSURLReadTimeout(30*time.Second),
	)
	if c.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.opts.ExecPath))
	}
	return chromedp.NewExecAllocator(ctx, opts...)
}

// Convert loads doc into a fresh tab and prints it. Pagination, the page
// margin and the orientation are applied on every page.
func (c *ChromeConverter) Convert(ctx context.Context, doc string, o docpreview.Orientation) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	allocCtx, allocCancel := c.allocator(ctx)
	defer allocCancel()

	var ctxOpts []chromedp.ContextOption
	if c.opts.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithLogf(func(format string, args ...any) {
			log.Printf("chromedp: "+format, args...)
		}))
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, ctxOpts...)
	defer browserCancel()

	width, height := PaperSize(o)
	var pdfData []byte

	// The document is injected rather than navigated to, so remote browsers
	// need no access to the local filesystem
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfData, _, err = page.PrintToPDF().
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithMarginTop(pageMargin).
				WithMarginBottom(pageMargin).
				WithMarginLeft(pageMargin).
				WithMarginRight(pageMargin).
				WithPrintBackground(true).
				WithPreferCSSPageSize(false).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return pdfData, nil
}
