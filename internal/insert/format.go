package insert

import (
	"strings"

	"github.com/gi8lino/jirafind/internal/jira"
)

// DefaultFormat renders a Markdown link to the issue.
const DefaultFormat = "[{key}: {summary}]({url})"

// Fallbacks for fields an issue may not have.
const (
	NoAssignee = "Unassigned"
	NoParent   = "No Parent"
)

// Format substitutes the issue into tmpl. Known placeholders are {key},
// {summary}, {author}, {status}, {parent} and {url}; anything else is left as
// written. Values are inserted verbatim and never re-expanded.
func Format(tmpl string, issue jira.Issue, browseURL string) string {
	author := NoAssignee
	if a := issue.Fields.Assignee; a != nil && a.DisplayName != "" {
		author = a.DisplayName
	}
	parent := NoParent
	if p := issue.Fields.Parent; p != nil && p.Fields.Summary != "" {
		parent = p.Fields.Summary
	}

	r := strings.NewReplacer(
		"{key}", issue.Key,
		"{summary}", issue.Fields.Summary,
		"{author}", author,
		"{status}", issue.Fields.Status.Name,
		"{parent}", parent,
		"{url}", browseURL,
	)
	return r.Replace(tmpl)
}
