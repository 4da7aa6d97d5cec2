package render

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"interview_protocol/notify"
)

// MessageCopied is the toast raised by a copy action.
const MessageCopied = "SOURCE COPIED"

var (
	ErrNoCodeBlock = errors.New("no such code block")
	ErrNotCode     = errors.New("block is not a code block")
)

// Clipboard receives copied text. Writes are best effort.
type Clipboard interface {
	WriteText(text string) error
}

// ClipboardFunc adapts a function to Clipboard.
type ClipboardFunc func(string) error

func (f ClipboardFunc) WriteText(s string) error { return f(s) }

// ClipboardText is the exact text a code block copies: its source minus one trailing newline.
func ClipboardText(source string) string {
	return strings.TrimSuffix(source, "\n")
}

// Copier implements the copy action of code blocks.
type Copier struct {
	clipboard Clipboard
	toasts    notify.Pusher
	logger    *slog.Logger
}

func NewCopier(clipboard Clipboard, toasts notify.Pusher, logger *slog.Logger) *Copier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Copier{clipboard: clipboard, toasts: toasts, logger: logger.With("component", "copier")}
}

// Copy forwards the block's text to the clipboard and raises one success toast.
func (c *Copier) Copy(b Block) (string, error) {
	if b.Kind != KindCode {
		return "", ErrNotCode
	}
	text := ClipboardText(b.Source)
	if c.clipboard != nil {
		if err := c.clipboard.WriteText(text); err != nil {
			c.logger.Warn("clipboard write failed", "error", err)
		}
	}
	if c.toasts != nil {
		c.toasts.Push(MessageCopied, notify.Success)
	}
	return text, nil
}

// CopyAt copies the index-th code block of doc.
func (c *Copier) CopyAt(doc Document, index int) (string, error) {
	code := doc.CodeBlocks()
	if index < 0 || index >= len(code) {
		return "", fmt.Errorf("%w: %d of %d", ErrNoCodeBlock, index, len(code))
	}
	return c.Copy(code[index])
}
