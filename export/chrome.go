package export

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// browserNames are looked up on PATH when no browser is configured.
var browserNames = []string{
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
}

// FindBrowser resolves path, or the first known Chrome binary on PATH when
// path is empty. It returns "" when none is found.
func FindBrowser(path string) string {
	if path != "" {
		if resolved, err := exec.LookPath(path); err == nil {
			return resolved
		}
		return ""
	}
	for _, name := range browserNames {
		if resolved, err := exec.LookPath(name); err == nil {
			return resolved
		}
	}
	return ""
}

// ChromeCapture prints the page to PDF with a headless Chrome driven over
// the DevTools protocol.
type ChromeCapture struct {
	// Browser is the Chrome binary; empty searches PATH.
	Browser string
	Dir     string
}

func (c ChromeCapture) Capture(ctx context.Context, pg Page, opts Options) (string, error) {
	browser := FindBrowser(c.Browser)
	if browser == "" {
		return "", fmt.Errorf("%w: no chrome binary found", ErrCaptureUnavailable)
	}

	doc, err := PrintDocument(pg, opts, false)
	if err != nil {
		return "", err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(browser),
		chromedp.WindowSize(max(opts.WindowWidth, 800), 1200),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var pdf []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(doc)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := PDFParams(opts).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: chrome: %v", ErrExport, err)
	}
	if len(pdf) == 0 {
		return "", fmt.Errorf("%w: chrome returned an empty document", ErrExport)
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(c.Dir, opts.Filename)
	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		return "", err
	}
	return out, nil
}

// paperSizes in inches, portrait.
var paperSizes = map[string][2]float64{
	"a4":     {8.27, 11.69},
	"letter": {8.5, 11},
	"legal":  {8.5, 14},
}

// PDFParams maps capture options onto Chrome's print settings. Scale is the
// raster resolution of an image capture; vector output prints at 1.
func PDFParams(opts Options) *page.PrintToPDFParams {
	size, ok := paperSizes[strings.ToLower(opts.Format)]
	if !ok {
		size = paperSizes["a4"]
	}
	toInches := func(v float64) float64 {
		switch opts.Unit {
		case "mm":
			return v / 25.4
		case "cm":
			return v / 2.54
		case "pt":
			return v / 72
		default:
			return v
		}
	}
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithLandscape(opts.Orientation == "landscape").
		WithPaperWidth(size[0]).
		WithPaperHeight(size[1]).
		WithMarginTop(toInches(opts.Margins[0])).
		WithMarginRight(toInches(opts.Margins[1])).
		WithMarginBottom(toInches(opts.Margins[2])).
		WithMarginLeft(toInches(opts.Margins[3])).
		WithPreferCSSPageSize(true)
}
