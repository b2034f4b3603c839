package insert

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// FileDocument is a text file edited in place.
type FileDocument struct {
	path string

	mu     sync.Mutex
	cursor Position
}

// NewFileDocument opens path for insertion. With a nil cursor the cursor is
// placed at the end of the file.
func NewFileDocument(path string, cursor *Position) (*FileDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	d := &FileDocument{path: path}
	if cursor != nil {
		d.cursor = *cursor
	} else {
		d.cursor = Position{}.After(string(data))
	}
	return d, nil
}

// Path returns the file path.
func (d *FileDocument) Path() string { return d.path }

// Cursor implements Document.
func (d *FileDocument) Cursor() Position {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor
}

// SetCursor implements Document.
func (d *FileDocument) SetCursor(pos Position) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursor = pos
}

// ReplaceRange inserts text at pos and rewrites the file. Positions past the
// end of a line or of the file are clamped.
func (d *FileDocument) ReplaceRange(text string, pos Position) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	info, err := os.Stat(d.path)
	if err != nil {
		return fmt.Errorf("stat document: %w", err)
	}
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	content := string(data)
	off := offset(content, pos)
	updated := content[:off] + text + content[off:]

	if err := os.WriteFile(d.path, []byte(updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// offset converts pos into a byte offset of content.
func offset(content string, pos Position) int {
	off := 0
	for line := 0; line < pos.Line; line++ {
		nl := strings.IndexByte(content[off:], '\n')
		if nl < 0 {
			return len(content)
		}
		off += nl + 1
	}

	rest := content[off:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	ch := 0
	for i := range rest { // i is the byte index of each rune
		if ch == pos.Ch {
			return off + i
		}
		ch++
	}
	return off + len(rest)
}
