package render

import (
	"fmt"
	"html"
	"strings"
)

// Styles maps each block kind to the classes and fixed labels it renders with.
type Styles struct {
	Document string

	Title           string
	TitleRule       string
	Section         string
	NumberedSection string
	SectionRule     string
	Subheading      string

	Paragraph   string
	List        string
	OrderedList string
	ListItem    string
	Bullet      string
	BulletText  string

	Quote      string
	QuoteLabel string
	QuoteBody  string
	QuoteText  string

	Code       string
	CodeHeader string
	CodeLabel  string
	CodeText   string
	CopyButton string
	CopyText   string
	CodeBody   string

	Table     string
	TableHead string
	TableBody string

	Rule      string
	RuleLabel string
	RuleText  string
}

// DefaultStyles is the dossier look served by the web page.
var DefaultStyles = Styles{
	Document: "doc",

	Title:           "doc-title",
	TitleRule:       "doc-title-rule",
	Section:         "section-header",
	NumberedSection: "section-header numbered",
	SectionRule:     "section-rule",
	Subheading:      "subheading",

	Paragraph:   "para",
	List:        "list",
	OrderedList: "list ordered",
	ListItem:    "list-item",
	Bullet:      "bullet",
	BulletText:  ">>",

	Quote:      "answer-module",
	QuoteLabel: "answer-label print-badge",
	QuoteBody:  "answer-body",
	QuoteText:  "DATA MODULE",

	Code:       "code-block",
	CodeHeader: "code-header",
	CodeLabel:  "code-label",
	CodeText:   "SCRIPT SOURCE",
	CopyButton: "copy-button",
	CopyText:   "[ COPY ]",
	CodeBody:   "code-body",

	Table:     "data-table",
	TableHead: "data-table-head",
	TableBody: "data-table-body",

	Rule:      "section-break",
	RuleLabel: "section-break-label",
	RuleText:  "SECTION BREAK",
}

// HTML renders doc with the given styles.
func HTML(doc Document, s Styles) string {
	w := &htmlWriter{s: s}
	fmt.Fprintf(&w.sb, `<div class="%s">`, attr(s.Document))
	w.blocks(doc.Blocks)
	w.sb.WriteString("</div>")
	return w.sb.String()
}

type htmlWriter struct {
	sb strings.Builder
	s  Styles
}

func (w *htmlWriter) blocks(bs []Block) {
	for _, b := range bs {
		w.block(b)
	}
}

func (w *htmlWriter) block(b Block) {
	switch b.Kind {
	case KindHeading:
		w.heading(b)
	case KindParagraph:
		fmt.Fprintf(&w.sb, `<p class="%s">%s</p>`, attr(w.s.Paragraph), b.HTML)
	case KindList:
		w.list(b)
	case KindQuote:
		w.quote(b)
	case KindCode:
		w.code(b)
	case KindTable:
		w.table(b)
	case KindRule:
		fmt.Fprintf(&w.sb, `<div class="%s"><span class="%s">%s</span></div>`,
			attr(w.s.Rule), attr(w.s.RuleLabel), escape(w.s.RuleText))
	}
}

func (w *htmlWriter) heading(b Block) {
	switch {
	case b.Level == 1:
		fmt.Fprintf(&w.sb, `<div class="%s"><h1>%s</h1><div class="%s"></div></div>`,
			attr(w.s.Title), b.HTML, attr(w.s.TitleRule))
	case b.Level == 2:
		class := w.s.Section
		if b.Numbered {
			class = w.s.NumberedSection
		}
		fmt.Fprintf(&w.sb, `<div class="%s"><h2>%s</h2><div class="%s"></div></div>`,
			attr(class), b.HTML, attr(w.s.SectionRule))
	default:
		level := min(max(b.Level, 3), 6)
		fmt.Fprintf(&w.sb, `<h%d class="%s">%s</h%d>`, level, attr(w.s.Subheading), b.HTML, level)
	}
}

func (w *htmlWriter) list(b Block) {
	if b.Ordered {
		start := ""
		if b.Start > 1 {
			start = fmt.Sprintf(` start="%d"`, b.Start)
		}
		fmt.Fprintf(&w.sb, `<ol class="%s"%s>`, attr(w.s.OrderedList), start)
		for _, it := range b.Items {
			fmt.Fprintf(&w.sb, `<li class="%s">`, attr(w.s.ListItem))
			w.itemBody(it)
			w.sb.WriteString("</li>")
		}
		w.sb.WriteString("</ol>")
		return
	}
	fmt.Fprintf(&w.sb, `<ul class="%s">`, attr(w.s.List))
	for _, it := range b.Items {
		fmt.Fprintf(&w.sb, `<li class="%s"><span class="%s">%s</span><span>`,
			attr(w.s.ListItem), attr(w.s.Bullet), escape(w.s.BulletText))
		w.itemBody(it)
		w.sb.WriteString("</span></li>")
	}
	w.sb.WriteString("</ul>")
}

// itemBody writes a single-paragraph item inline, anything else as blocks.
func (w *htmlWriter) itemBody(it Item) {
	if len(it.Blocks) == 1 && it.Blocks[0].Kind == KindParagraph {
		w.sb.WriteString(it.Blocks[0].HTML)
		return
	}
	w.blocks(it.Blocks)
}

func (w *htmlWriter) quote(b Block) {
	fmt.Fprintf(&w.sb, `<div class="%s"><div class="%s">%s</div><blockquote class="%s">`,
		attr(w.s.Quote), attr(w.s.QuoteLabel), escape(w.s.QuoteText), attr(w.s.QuoteBody))
	w.blocks(b.Children)
	w.sb.WriteString("</blockquote></div>")
}

func (w *htmlWriter) code(b Block) {
	fmt.Fprintf(&w.sb, `<div class="%s"><div class="%s"><span class="%s">%s</span>`,
		attr(w.s.Code), attr(w.s.CodeHeader), attr(w.s.CodeLabel), escape(w.s.CodeText))
	fmt.Fprintf(&w.sb, `<button type="button" class="%s" data-copy="%d">%s</button></div>`,
		attr(w.s.CopyButton), b.CopyIndex, escape(w.s.CopyText))
	lang := ""
	if b.Language != "" {
		lang = fmt.Sprintf(` class="language-%s"`, attr(b.Language))
	}
	fmt.Fprintf(&w.sb, `<pre class="%s"><code%s>%s</code></pre></div>`,
		attr(w.s.CodeBody), lang, escape(ClipboardText(b.Source)))
}

func (w *htmlWriter) table(b Block) {
	fmt.Fprintf(&w.sb, `<div class="%s"><table>`, attr(w.s.Table))
	if len(b.Header) > 0 {
		fmt.Fprintf(&w.sb, `<thead class="%s"><tr>`, attr(w.s.TableHead))
		for _, c := range b.Header {
			fmt.Fprintf(&w.sb, `<th%s>%s</th>`, alignAttr(c.Align), c.HTML)
		}
		w.sb.WriteString("</tr></thead>")
	}
	fmt.Fprintf(&w.sb, `<tbody class="%s">`, attr(w.s.TableBody))
	for _, row := range b.Rows {
		w.sb.WriteString("<tr>")
		for _, c := range row {
			fmt.Fprintf(&w.sb, `<td%s>%s</td>`, alignAttr(c.Align), c.HTML)
		}
		w.sb.WriteString("</tr>")
	}
	w.sb.WriteString("</tbody></table></div>")
}

func alignAttr(a string) string {
	if a == "" {
		return ""
	}
	return fmt.Sprintf(` style="text-align:%s"`, a)
}

func escape(s string) string {
	return html.EscapeString(s)
}

func attr(s string) string {
	return html.EscapeString(s)
}
