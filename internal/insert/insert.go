// Package insert writes a chosen issue into the user's document.
package insert

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/gi8lino/jirafind/internal/jira"
)

// ErrNoActiveDocument is returned when there is nothing to insert into.
var ErrNoActiveDocument = errors.New("no active document")

// Position is a cursor location: zero-based line and character within the line.
type Position struct {
	Line int
	Ch   int
}

// After returns the position right behind text inserted at p.
func (p Position) After(text string) Position {
	lines := strings.Count(text, "\n")
	if lines == 0 {
		return Position{Line: p.Line, Ch: p.Ch + utf8.RuneCountInString(text)}
	}
	last := text[strings.LastIndex(text, "\n")+1:]
	return Position{Line: p.Line + lines, Ch: utf8.RuneCountInString(last)}
}

// Document is an editable insertion target.
type Document interface {
	Cursor() Position
	ReplaceRange(text string, at Position) error
	SetCursor(pos Position)
}

// Workspace yields the document that should receive insertions.
type Workspace interface {
	ActiveDocument() (Document, bool)
}

// Notifier shows short-lived messages to the user.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(msg string) { f(msg) }

// Single is a Workspace with one fixed document; a nil Doc means none.
type Single struct {
	Doc Document
}

// ActiveDocument implements Workspace.
func (s Single) ActiveDocument() (Document, bool) {
	return s.Doc, s.Doc != nil
}

// Inserter formats issues and writes them at the cursor of the active document.
type Inserter struct {
	workspace Workspace
	notifier  Notifier
	format    string
	browseURL func(key string) string
	logger    *slog.Logger
}

// NewInserter returns an Inserter. An empty format selects DefaultFormat.
func NewInserter(ws Workspace, n Notifier, format string, browseURL func(string) string, logger *slog.Logger) *Inserter {
	if strings.TrimSpace(format) == "" {
		format = DefaultFormat
	}
	if browseURL == nil {
		browseURL = func(string) string { return "" }
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Inserter{workspace: ws, notifier: n, format: format, browseURL: browseURL, logger: logger}
}

// Insert writes the formatted issue at the cursor and moves the cursor behind it.
// Failures are reported through the notifier and returned; the document is
// left untouched when there is no active document.
func (i *Inserter) Insert(issue jira.Issue) (string, error) {
	doc, ok := i.workspace.ActiveDocument()
	if !ok {
		i.notify("No active document to insert " + issue.Key + " into")
		return "", ErrNoActiveDocument
	}

	text := Format(i.format, issue, i.browseURL(issue.Key))
	pos := doc.Cursor()
	if err := doc.ReplaceRange(text, pos); err != nil {
		i.logger.Error("insert failed", "key", issue.Key, "error", err)
		i.notify("Failed to insert " + issue.Key)
		return "", fmt.Errorf("insert %s: %w", issue.Key, err)
	}
	doc.SetCursor(pos.After(text))

	i.logger.Debug("inserted issue", "key", issue.Key, "line", pos.Line, "ch", pos.Ch)
	return text, nil
}

func (i *Inserter) notify(msg string) {
	if i.notifier != nil {
		i.notifier.Notify(msg)
	}
}
