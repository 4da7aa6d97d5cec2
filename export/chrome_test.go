package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview_protocol/notify"
)

func TestPDFParams(t *testing.T) {
	p := PDFParams(DefaultOptions("x.pdf"))

	assert.False(t, p.Landscape)
	assert.True(t, p.PrintBackground)
	assert.True(t, p.PreferCSSPageSize)
	assert.Equal(t, 8.27, p.PaperWidth)
	assert.Equal(t, 11.69, p.PaperHeight)
	for _, m := range []float64{p.MarginTop, p.MarginRight, p.MarginBottom, p.MarginLeft} {
		assert.Equal(t, 0.4, m)
	}
}

func TestPDFParamsUnitsAndFormat(t *testing.T) {
	opts := DefaultOptions("x.pdf")
	opts.Unit = "mm"
	opts.Margins = [4]float64{25.4, 0, 0, 0}
	opts.Format = "letter"
	opts.Orientation = "landscape"

	p := PDFParams(opts)
	assert.True(t, p.Landscape)
	assert.Equal(t, 8.5, p.PaperWidth)
	assert.Equal(t, 11.0, p.PaperHeight)
	assert.InDelta(t, 1.0, p.MarginTop, 1e-9)

	opts.Format = "tabloid"
	assert.Equal(t, 8.27, PDFParams(opts).PaperWidth, "unknown formats fall back to A4")
}

func TestFindBrowser(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "chrome")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	assert.Equal(t, bin, FindBrowser(bin))
	assert.Empty(t, FindBrowser(filepath.Join(dir, "missing")))
}

func TestChromeCaptureWithoutBrowser(t *testing.T) {
	capture := ChromeCapture{Browser: filepath.Join(t.TempDir(), "missing"), Dir: t.TempDir()}
	a, surface, toasts, slept := newTestAdapter(t, capture)

	_, err := a.Export(context.Background(), Page{HTML: "<p>x</p>"}, Metadata{Topic: "go"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCaptureUnavailable)
	assert.False(t, surface.mode)
	assert.Equal(t, []string{"scroll", "mode-on", "mode-off"}, surface.events)
	assert.Len(t, *slept, 1)

	require.Len(t, toasts.toasts, 2)
	assert.Equal(t, MessageNoModule, toasts.toasts[1].Message)
	assert.Equal(t, notify.Error, toasts.toasts[1].Kind)
}
