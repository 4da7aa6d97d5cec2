package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview_protocol/notify"
)

type pushRecorder struct {
	toasts []notify.Toast
}

func (p *pushRecorder) Push(message string, kind notify.Kind) string {
	p.toasts = append(p.toasts, notify.Toast{Message: message, Kind: kind})
	return message
}

func TestCopyStripsOneTrailingNewline(t *testing.T) {
	var copied []string
	toasts := &pushRecorder{}
	c := NewCopier(ClipboardFunc(func(s string) error {
		copied = append(copied, s)
		return nil
	}), toasts, nil)

	content := "```python\nprint('x')\n```\n"
	doc := Render(content)
	text, err := c.CopyAt(doc, 0)
	require.NoError(t, err)

	assert.Equal(t, "print('x')", text)
	assert.Equal(t, []string{"print('x')"}, copied)
	require.Len(t, toasts.toasts, 1)
	assert.Equal(t, notify.Toast{Message: MessageCopied, Kind: notify.Success}, toasts.toasts[0])
	assert.Equal(t, "```python\nprint('x')\n```\n", content)
}

func TestClipboardText(t *testing.T) {
	assert.Equal(t, "print('x')", ClipboardText("print('x')\n"))
	assert.Equal(t, "a\n", ClipboardText("a\n\n"))
	assert.Equal(t, "a", ClipboardText("a"))
	assert.Equal(t, "", ClipboardText(""))
}

func TestCopyClipboardFailureStillToasts(t *testing.T) {
	toasts := &pushRecorder{}
	c := NewCopier(ClipboardFunc(func(string) error { return errors.New("no clipboard") }), toasts, nil)

	text, err := c.Copy(Block{Kind: KindCode, Source: "x\n"})
	require.NoError(t, err)
	assert.Equal(t, "x", text)
	assert.Len(t, toasts.toasts, 1)
}

func TestCopyRejectsMissingAndNonCode(t *testing.T) {
	toasts := &pushRecorder{}
	c := NewCopier(nil, toasts, nil)

	_, err := c.CopyAt(Render("no code here"), 0)
	assert.ErrorIs(t, err, ErrNoCodeBlock)

	_, err = c.Copy(Block{Kind: KindParagraph})
	assert.ErrorIs(t, err, ErrNotCode)
	assert.Empty(t, toasts.toasts)
}
