// Package jql builds the JQL queries sent to the Jira search endpoint.
//
// Values are wrapped in double quotes and otherwise passed through verbatim.
// Free text containing quotes or JQL reserved characters is the caller's
// responsibility.
package jql

import (
	"regexp"
	"strings"
)

// OrderBy is appended to every query.
const OrderBy = "ORDER BY updated DESC"

// keySuffix matches the part of an issue key after "PROJECT-".
var keySuffix = regexp.MustCompile(`^[A-Z0-9]+$`)

// Build returns the JQL for a project search. Clauses are always emitted in the
// order project, assignee, status, text, followed by OrderBy.
func Build(projectKey, freeText string, statuses []string, mineOnly bool) string {
	projectKey = strings.TrimSpace(projectKey)
	clauses := []string{"project = " + quote(projectKey)}

	if mineOnly {
		clauses = append(clauses, "assignee = currentUser()")
	}

	if names := uniqueNames(statuses); len(names) > 0 {
		quoted := make([]string, len(names))
		for i, n := range names {
			quoted[i] = quote(n)
		}
		clauses = append(clauses, "status in ("+strings.Join(quoted, ", ")+")")
	}

	if text := strings.TrimSpace(freeText); text != "" {
		clause := "summary ~ " + quote(text+"*")
		if key, ok := IssueKey(projectKey, text); ok {
			clause = "(" + clause + " OR key = " + quote(key) + ")"
		}
		clauses = append(clauses, clause)
	}

	return strings.Join(clauses, " AND ") + " " + OrderBy
}

// IssueKey turns typed text into an issue key of the project: "12" and "abc-12"
// both become "ABC-12". It reports false when the text cannot be a key suffix
// (whitespace, quotes, symbols), in which case only the summary is searched.
func IssueKey(projectKey, text string) (string, bool) {
	project := strings.ToUpper(strings.TrimSpace(projectKey))
	upper := strings.ToUpper(strings.TrimSpace(text))
	if project == "" || upper == "" {
		return "", false
	}

	suffix := strings.TrimPrefix(upper, project+"-")
	if !keySuffix.MatchString(suffix) {
		return "", false
	}
	return project + "-" + suffix, true
}

// uniqueNames drops blanks and duplicates, keeping first-seen order.
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func quote(s string) string {
	return `"` + s + `"`
}
