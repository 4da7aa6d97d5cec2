package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
)

var printTmpl = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: {{.Format}} {{.Orientation}}; margin: {{.Margins}}; }
{{.CSS}}
body { width: {{.Width}}px; margin: 0 auto; }
{{range .AvoidSelectors}}{{.}} { break-inside: avoid; page-break-inside: avoid; }
{{end}}.no-print { display: none !important; }
</style>
</head>
<body class="pdf-mode">
{{.Body}}
{{if .AutoPrint}}<script>window.addEventListener("load", function () { window.scrollTo(0, 0); window.print(); });</script>{{end}}
</body>
</html>
`))

// avoidSelectors are kept whole across page boundaries when "avoid-all" is requested.
var avoidSelectors = []string{
	".answer-module", ".code-block", ".section-header", ".data-table", "tr", "li", "p",
}

type printData struct {
	Title          string
	Format         template.CSS
	Orientation    template.CSS
	Margins        template.CSS
	Width          int
	CSS            template.CSS
	AvoidSelectors []template.CSS
	Body           template.HTML
	AutoPrint      bool
}

// PrintDocument wraps page into a standalone paginated HTML document.
func PrintDocument(page Page, opts Options, autoPrint bool) ([]byte, error) {
	d := printData{
		Title:       page.Title,
		Format:      template.CSS(strings.ToUpper(opts.Format)),
		Orientation: template.CSS(opts.Orientation),
		Width:       opts.WindowWidth,
		CSS:         template.CSS(page.CSS),
		Body:        template.HTML(page.HTML),
		AutoPrint:   autoPrint,
	}
	unit := opts.Unit
	if unit == "" {
		unit = "in"
	}
	var m []string
	for _, v := range opts.Margins {
		m = append(m, fmt.Sprintf("%g%s", v, unit))
	}
	d.Margins = template.CSS(strings.Join(m, " "))
	for _, mode := range opts.PageBreak {
		if mode == "avoid-all" {
			for _, s := range avoidSelectors {
				d.AvoidSelectors = append(d.AvoidSelectors, template.CSS(s))
			}
			break
		}
	}

	var buf bytes.Buffer
	if err := printTmpl.Execute(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PrintCapture writes a print-ready HTML file that opens the browser print
// dialog on load. The artifact keeps the requested name with an .html suffix.
type PrintCapture struct {
	Dir string
}

func (p PrintCapture) Capture(ctx context.Context, page Page, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, err := PrintDocument(page, opts, true)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", err
	}
	name := strings.TrimSuffix(opts.Filename, filepath.Ext(opts.Filename)) + ".html"
	path := filepath.Join(p.Dir, name)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
