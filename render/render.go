// Package render turns streamed markdown into a sequence of styled blocks.
//
// Render is called on every streamed fragment, so it must accept any prefix
// of a document: an unterminated fence renders as a code block running to
// the end, a bare "#" renders as an empty heading. Raw HTML in the input is
// never passed through.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// NumberedMarker in a level-2 heading marks a numbered section ("01 // BASICS").
const NumberedMarker = "//"

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Render parses content into a Document. It is pure and never panics.
func Render(content string) (doc Document) {
	defer func() {
		if r := recover(); r != nil {
			doc = Document{Blocks: []Block{fallbackParagraph(content)}}
		}
	}()

	src := []byte(content)
	root := md.Parser().Parse(text.NewReader(src))
	c := &converter{src: src}
	return Document{Blocks: c.blocks(root)}
}

type converter struct {
	src  []byte
	code int
}

func (c *converter) blocks(parent ast.Node) []Block {
	var out []Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b, ok := c.block(n); ok {
			out = append(out, b)
		}
	}
	return out
}

func (c *converter) block(n ast.Node) (Block, bool) {
	switch n := n.(type) {
	case *ast.Heading:
		t := c.plain(n)
		return Block{
			Kind:     KindHeading,
			Level:    n.Level,
			Text:     t,
			HTML:     c.inline(n),
			Numbered: n.Level == 2 && strings.Contains(t, NumberedMarker),
		}, true
	case *ast.Paragraph, *ast.TextBlock:
		return Block{Kind: KindParagraph, Text: c.plain(n), HTML: c.inline(n)}, true
	case *ast.List:
		b := Block{Kind: KindList, Ordered: n.IsOrdered(), Start: n.Start}
		for it := n.FirstChild(); it != nil; it = it.NextSibling() {
			b.Items = append(b.Items, Item{Blocks: c.blocks(it)})
		}
		return b, true
	case *ast.Blockquote:
		return Block{Kind: KindQuote, Children: c.blocks(n)}, true
	case *ast.FencedCodeBlock:
		var lang string
		if n.Info != nil {
			lang = string(n.Language(c.src))
		}
		return c.codeBlock(lang, n), true
	case *ast.CodeBlock:
		return c.codeBlock("", n), true
	case *ast.ThematicBreak:
		return Block{Kind: KindRule}, true
	case *east.Table:
		return c.table(n), true
	case *ast.HTMLBlock:
		// untrusted markup is shown as text
		raw := strings.TrimRight(c.lines(n), "\n")
		if raw == "" {
			return Block{}, false
		}
		return fallbackParagraph(raw), true
	default:
		if n.HasChildren() {
			bs := c.blocks(n)
			if len(bs) == 1 {
				return bs[0], true
			}
			if len(bs) > 1 {
				return Block{Kind: KindQuote, Children: bs}, true
			}
		}
		return Block{}, false
	}
}

func (c *converter) codeBlock(lang string, n ast.Node) Block {
	b := Block{Kind: KindCode, Language: lang, Source: c.lines(n), CopyIndex: c.code}
	c.code++
	return b
}

func (c *converter) table(t *east.Table) Block {
	b := Block{Kind: KindTable}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []Cell
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			tc, ok := cell.(*east.TableCell)
			if !ok {
				continue
			}
			cells = append(cells, Cell{
				Text:  c.plain(tc),
				HTML:  c.inline(tc),
				Align: alignment(tc.Alignment),
			})
		}
		if _, ok := row.(*east.TableHeader); ok {
			b.Header = cells
			continue
		}
		b.Rows = append(b.Rows, cells)
	}
	return b
}

func alignment(a east.Alignment) string {
	switch a {
	case east.AlignLeft:
		return "left"
	case east.AlignRight:
		return "right"
	case east.AlignCenter:
		return "center"
	default:
		return ""
	}
}

func (c *converter) lines(n ast.Node) string {
	var buf bytes.Buffer
	l := n.Lines()
	for i := 0; i < l.Len(); i++ {
		seg := l.At(i)
		buf.Write(seg.Value(c.src))
	}
	return buf.String()
}

// inline renders the inline children of n with goldmark's safe HTML renderer.
func (c *converter) inline(n ast.Node) string {
	var buf bytes.Buffer
	r := md.Renderer()
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		if err := r.Render(&buf, c.src, ch); err != nil {
			return escape(c.plain(n))
		}
	}
	return strings.TrimSpace(buf.String())
}

// plain collects the literal text under n.
func (c *converter) plain(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(c.src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		case *ast.AutoLink:
			sb.Write(t.Label(c.src))
		case *ast.RawHTML:
			for i := 0; i < t.Segments.Len(); i++ {
				seg := t.Segments.At(i)
				sb.Write(seg.Value(c.src))
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func fallbackParagraph(s string) Block {
	return Block{Kind: KindParagraph, Text: s, HTML: escape(s)}
}

// String is a debug form of the document used in logs and tests.
func (d Document) String() string {
	var sb strings.Builder
	for _, b := range d.Blocks {
		fmt.Fprintf(&sb, "%s", b.Kind)
		switch b.Kind {
		case KindHeading:
			fmt.Fprintf(&sb, "(%d,%q)", b.Level, b.Text)
		case KindCode:
			fmt.Fprintf(&sb, "(%q)", b.Language)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
