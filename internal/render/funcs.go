package render

import (
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/gi8lino/jirafind/internal/insert"
	"github.com/gi8lino/jirafind/internal/jira"
)

// FuncMap returns sprig's text functions plus issue helpers.
func FuncMap() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["assignee"] = assignee
	fm["parent"] = parent
	fm["formatJiraDate"] = formatJiraDate
	fm["insertText"] = insert.Format
	return fm
}

// assignee returns the display name or the unassigned fallback.
func assignee(issue jira.Issue) string {
	if a := issue.Fields.Assignee; a != nil && a.DisplayName != "" {
		return a.DisplayName
	}
	return insert.NoAssignee
}

// parent returns the parent summary or the no-parent fallback.
func parent(issue jira.Issue) string {
	if p := issue.Fields.Parent; p != nil && p.Fields.Summary != "" {
		return p.Fields.Summary
	}
	return insert.NoParent
}

// jiraTime is the timestamp layout of issue date fields.
const jiraTime = "2006-01-02T15:04:05.000-0700"

// formatJiraDate reformats a Jira timestamp with layout. It takes the value last
// so it can be piped: {{ .Fields.Updated | formatJiraDate "2006-01-02" }}.
// Values that do not parse are returned as is.
func formatJiraDate(layout, value string) string {
	t, err := time.Parse(jiraTime, strings.TrimSuffix(value, "Z")+zoneSuffix(value))
	if err != nil {
		return value
	}
	return t.Format(layout)
}

// zoneSuffix turns a trailing UTC designator into a numeric offset.
func zoneSuffix(value string) string {
	if strings.HasSuffix(value, "Z") {
		return "+0000"
	}
	return ""
}
