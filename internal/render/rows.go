// Package render turns search results into text rows.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/gi8lino/jirafind/internal/jira"
)

// Row is the data passed to the row template.
type Row struct {
	jira.Issue
	Index int    // 1-based position in the result list
	URL   string // browse URL of the issue
}

// RowRenderer renders issues through a text/template.
type RowRenderer struct {
	tmpl      *template.Template
	browseURL func(key string) string
}

// NewRowRenderer parses text as the row template.
func NewRowRenderer(text string, browseURL func(string) string) (*RowRenderer, error) {
	tmpl, err := template.New("row").Funcs(FuncMap()).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse row template: %w", err)
	}
	if browseURL == nil {
		browseURL = func(string) string { return "" }
	}
	return &RowRenderer{tmpl: tmpl, browseURL: browseURL}, nil
}

// Row renders one issue. idx is zero-based.
func (r *RowRenderer) Row(idx int, issue jira.Issue) (string, error) {
	var b strings.Builder
	row := Row{Issue: issue, Index: idx + 1, URL: r.browseURL(issue.Key)}
	if err := r.tmpl.Execute(&b, row); err != nil {
		return "", fmt.Errorf("render %s: %w", issue.Key, err)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// Write renders every issue on its own line. An empty list prints msg.
func (r *RowRenderer) Write(w io.Writer, issues []jira.Issue, empty string) error {
	if len(issues) == 0 {
		_, err := fmt.Fprintln(w, empty)
		return err
	}
	for i, issue := range issues {
		line, err := r.Row(i, issue)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
