package insert_test

import (
	"testing"

	"github.com/gi8lino/jirafind/internal/insert"
	"github.com/gi8lino/jirafind/internal/jira"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	issue := jira.Issue{
		Key: "ABC-1",
		Fields: jira.Fields{
			Summary: "Fix bug",
			Status:  jira.Status{Name: "Done"},
		},
	}

	t.Run("substitutes key, summary and status", func(t *testing.T) {
		t.Parallel()

		got := insert.Format("{key}: {summary} ({status})", issue, "")
		assert.Equal(t, "ABC-1: Fix bug (Done)", got)
	})

	t.Run("missing parent and assignee use fallbacks", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "No Parent", insert.Format("{parent}", issue, ""))
		assert.Equal(t, "Unassigned", insert.Format("{author}", issue, ""))
	})

	t.Run("present parent and assignee are used", func(t *testing.T) {
		t.Parallel()

		withRelations := issue
		withRelations.Fields.Parent = &jira.Parent{Key: "ABC-0", Fields: jira.ParentFields{Summary: "Login epic"}}
		withRelations.Fields.Assignee = &jira.User{DisplayName: "Jane Doe"}

		got := insert.Format("{key} by {author} in {parent}", withRelations, "")
		assert.Equal(t, "ABC-1 by Jane Doe in Login epic", got)
	})

	t.Run("default format links to the issue", func(t *testing.T) {
		t.Parallel()

		got := insert.Format(insert.DefaultFormat, issue, "https://acme.atlassian.net/browse/ABC-1")
		assert.Equal(t, "[ABC-1: Fix bug](https://acme.atlassian.net/browse/ABC-1)", got)
	})

	t.Run("unknown placeholders pass through", func(t *testing.T) {
		t.Parallel()

		got := insert.Format("{key} {priority} {", issue, "")
		assert.Equal(t, "ABC-1 {priority} {", got)
	})

	t.Run("values are not expanded again", func(t *testing.T) {
		t.Parallel()

		tricky := issue
		tricky.Fields.Summary = "literal {key}"
		assert.Equal(t, "literal {key}", insert.Format("{summary}", tricky, ""))
	})

	t.Run("repeated placeholders are all replaced", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "ABC-1/ABC-1", insert.Format("{key}/{key}", issue, ""))
	})
}
