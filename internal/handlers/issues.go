package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gi8lino/jirafind/internal/insert"
	"github.com/gi8lino/jirafind/internal/jira"
	"github.com/gi8lino/jirafind/internal/jql"
)

// IssueView is the JSON representation of one search hit.
type IssueView struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Status  string `json:"status"`
	Author  string `json:"author"`
	Parent  string `json:"parent"`
	URL     string `json:"url"`
	Insert  string `json:"insert"` // text the insert format produces
}

// IssuesResponse is returned by the issues endpoint.
type IssuesResponse struct {
	JQL    string      `json:"jql"`
	Issues []IssueView `json:"issues"`
}

// Browser builds browse links to issues.
type Browser interface {
	BrowseURL(key string) string
}

// IssuesHandler searches projectKey with the query parameters
// q (free text), status (repeatable or comma separated) and mine (bool).
func IssuesHandler(
	searcher jira.Searcher,
	browser Browser,
	projectKey string,
	insertFormat string,
	logger *slog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		mine := false
		if raw := q.Get("mine"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid mine parameter", err)
				return
			}
			mine = v
		}

		var statuses []string
		for _, s := range q["status"] {
			for part := range strings.SplitSeq(s, ",") {
				statuses = append(statuses, strings.TrimSpace(part))
			}
		}

		query := jql.Build(projectKey, q.Get("q"), statuses, mine)
		issues, err := searcher.SearchIssues(r.Context(), query, jira.MaxResults)
		if err != nil {
			status := upstreamStatus(err)
			logger.Error("search failed", "jql", query, "status", status, "error", err)
			writeError(w, status, "search failed", err)
			return
		}

		resp := IssuesResponse{JQL: query, Issues: make([]IssueView, 0, len(issues))}
		for _, issue := range issues {
			url := browser.BrowseURL(issue.Key)
			resp.Issues = append(resp.Issues, IssueView{
				Key:     issue.Key,
				Summary: issue.Fields.Summary,
				Status:  issue.Fields.Status.Name,
				Author:  insert.Format("{author}", issue, url),
				Parent:  insert.Format("{parent}", issue, url),
				URL:     url,
				Insert:  insert.Format(insertFormat, issue, url),
			})
		}
		logger.Debug("search served", "jql", query, "results", len(resp.Issues))
		writeJSON(w, r, http.StatusOK, resp)
	}
}
