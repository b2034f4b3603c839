package insert

import "github.com/atotto/clipboard"

// Clipboard is a Document backed by the system clipboard: every insertion
// replaces the clipboard content. It has no cursor.
type Clipboard struct {
	write func(string) error
}

// NewClipboard returns a clipboard Document.
func NewClipboard() *Clipboard {
	return &Clipboard{write: clipboard.WriteAll}
}

// Available reports whether a clipboard utility was found.
func (c *Clipboard) Available() bool { return !clipboard.Unsupported }

// Cursor implements Document.
func (c *Clipboard) Cursor() Position { return Position{} }

// SetCursor implements Document.
func (c *Clipboard) SetCursor(Position) {}

// ReplaceRange implements Document.
func (c *Clipboard) ReplaceRange(text string, _ Position) error {
	return c.write(text)
}
