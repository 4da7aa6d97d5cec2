package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultConverter is the HTML to PDF binary looked up on PATH.
const DefaultConverter = "wkhtmltopdf"

// CommandCapture pipes the print document through an external HTML to PDF
// converter that accepts wkhtmltopdf flags.
type CommandCapture struct {
	Binary string
	Dir    string
}

func (c CommandCapture) Capture(ctx context.Context, page Page, opts Options) (string, error) {
	bin := c.Binary
	if bin == "" {
		bin = DefaultConverter
	}
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	doc, err := PrintDocument(page, opts, false)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(c.Dir, opts.Filename)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, resolved, append(ConverterArgs(opts), "-", out)...)
	cmd.Stdin = bytes.NewReader(doc)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", filepath.Base(resolved), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// ConverterArgs maps capture options onto converter flags.
func ConverterArgs(opts Options) []string {
	unit := opts.Unit
	if unit == "" {
		unit = "in"
	}
	orientation := opts.Orientation
	if orientation == "" {
		orientation = "portrait"
	}
	m := func(v float64) string { return fmt.Sprintf("%g%s", v, unit) }
	args := []string{
		"--quiet",
		"--print-media-type",
		"--page-size", strings.ToUpper(opts.Format),
		"--orientation", strings.ToUpper(orientation[:1]) + orientation[1:],
		"--margin-top", m(opts.Margins[0]),
		"--margin-right", m(opts.Margins[1]),
		"--margin-bottom", m(opts.Margins[2]),
		"--margin-left", m(opts.Margins[3]),
	}
	if opts.Scale > 0 {
		args = append(args, "--dpi", fmt.Sprintf("%d", int(96*opts.Scale)))
	}
	if opts.ImageQuality > 0 {
		args = append(args, "--image-quality", fmt.Sprintf("%d", int(opts.ImageQuality*100+0.5)))
	}
	if opts.WindowWidth > 0 {
		args = append(args, "--viewport-size", fmt.Sprintf("%dx1", opts.WindowWidth))
	}
	return args
}
