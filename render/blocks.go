package render

import "fmt"

// Kind tags a Block. The set is closed; HTML dispatches on it.
type Kind int

const (
	KindHeading Kind = iota + 1
	KindParagraph
	KindList
	KindQuote
	KindCode
	KindTable
	KindRule
)

var kindNames = map[Kind]string{
	KindHeading:   "heading",
	KindParagraph: "paragraph",
	KindList:      "list",
	KindQuote:     "quote",
	KindCode:      "code",
	KindTable:     "table",
	KindRule:      "rule",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Block is one visual unit of the document. Which fields are meaningful
// depends on Kind:
//
//	heading    Level, Text, HTML, Numbered
//	paragraph  Text, HTML
//	list       Ordered, Start, Items
//	quote      Children
//	code       Language, Source, CopyIndex
//	table      Header, Rows
//	rule       (none)
type Block struct {
	Kind Kind `json:"kind"`

	Level    int    `json:"level,omitempty"`
	Text     string `json:"text,omitempty"`
	HTML     string `json:"html,omitempty"`
	Numbered bool   `json:"numbered,omitempty"`

	Ordered bool   `json:"ordered,omitempty"`
	Start   int    `json:"start,omitempty"`
	Items   []Item `json:"items,omitempty"`

	Children []Block `json:"children,omitempty"`

	Language  string `json:"language,omitempty"`
	Source    string `json:"source,omitempty"`
	CopyIndex int    `json:"-"`

	Header []Cell   `json:"header,omitempty"`
	Rows   [][]Cell `json:"rows,omitempty"`
}

// Item is a list entry; its content is itself a sequence of blocks.
type Item struct {
	Blocks []Block `json:"blocks"`
}

// Cell is a table cell.
type Cell struct {
	Text  string `json:"text"`
	HTML  string `json:"html"`
	Align string `json:"align,omitempty"`
}

// Document is the block sequence rendered from one content string.
type Document struct {
	Blocks []Block `json:"blocks"`
}

// CodeBlocks returns every code block in document order, nested ones included.
// A block's CopyIndex is its position in this list.
func (d Document) CodeBlocks() []Block {
	var out []Block
	var walk func([]Block)
	walk = func(bs []Block) {
		for _, b := range bs {
			switch b.Kind {
			case KindCode:
				out = append(out, b)
			case KindQuote:
				walk(b.Children)
			case KindList:
				for _, it := range b.Items {
					walk(it.Blocks)
				}
			}
		}
	}
	walk(d.Blocks)
	return out
}
