package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MaxResults caps the number of issues returned by a single search.
const MaxResults = 20

// maxErrorBody limits how much of an upstream error body is kept.
const maxErrorBody = 2048

// Searcher runs JQL searches.
type Searcher interface {
	SearchIssues(ctx context.Context, jql string, maxResults int) ([]Issue, error)
}

// StatusFetcher lists the workflow statuses of a project.
type StatusFetcher interface {
	ProjectStatuses(ctx context.Context, projectKey string) ([]Status, error)
}

// StatusError is returned when Jira answers with a non-success status code.
type StatusError struct {
	Code int
	Body string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("jira returned %d", e.Code)
	}
	return fmt.Sprintf("jira returned %d: %s", e.Code, e.Body)
}

// Client handles communication with the Jira REST API.
type Client struct {
	SiteURL *url.URL     // Jira site (e.g. https://acme.atlassian.net)
	APIURL  *url.URL     // Base API URL, always ends with /rest/api/3/
	Client  *http.Client // Underlying HTTP client
	auth    AuthFunc
}

// NewClient returns a Jira client for the given site URL and authentication function.
func NewClient(siteURL *url.URL, auth AuthFunc, skipVerify bool, timeout time.Duration) *Client {
	return &Client{
		SiteURL: siteURL,
		APIURL:  apiURL(siteURL),
		Client:  newHTTPClient(skipVerify, timeout),
		auth:    auth,
	}
}

// apiURL derives the v3 REST base from a site URL.
func apiURL(site *url.URL) *url.URL {
	u := *site
	u.Path = strings.TrimRight(site.Path, "/") + "/rest/api/3/"
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return &u
}

// BrowseURL returns the web link of an issue.
func (c *Client) BrowseURL(key string) string {
	return c.SiteURL.JoinPath("browse", key).String()
}

// SearchIssues performs a JQL search and returns at most maxResults issues in Jira order.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) ([]Issue, error) {
	if strings.TrimSpace(jql) == "" {
		return nil, fmt.Errorf("missing JQL query")
	}
	if maxResults <= 0 || maxResults > MaxResults {
		maxResults = MaxResults
	}

	params := url.Values{}
	params.Set("jql", jql)
	params.Set("maxResults", strconv.Itoa(maxResults))

	body, err := c.doRequest(ctx, http.MethodGet, "search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search result: %w", err)
	}
	if result.Issues == nil {
		result.Issues = []Issue{}
	}
	return result.Issues, nil
}

// ProjectStatuses returns the statuses of a project, merged across issue types
// by ID in first-seen order.
func (c *Client) ProjectStatuses(ctx context.Context, projectKey string) ([]Status, error) {
	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		return nil, fmt.Errorf("missing project key")
	}

	body, err := c.doRequest(ctx, http.MethodGet, "project/"+url.PathEscape(projectKey)+"/statuses")
	if err != nil {
		return nil, err
	}

	var types []issueTypeStatuses
	if err := json.Unmarshal(body, &types); err != nil {
		return nil, fmt.Errorf("decode statuses: %w", err)
	}

	seen := make(map[string]struct{})
	statuses := []Status{}
	for _, it := range types {
		for _, s := range it.Statuses {
			id := s.ID
			if id == "" {
				id = s.Name
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			statuses = append(statuses, s)
		}
	}
	return statuses, nil
}

// doRequest performs an authenticated request and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	// Parse path into relative URL with optional query
	relURL, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}
	fullURL := c.APIURL.ResolveReference(relURL).String()

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.auth != nil {
		c.auth(req)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(trim(respBody, maxErrorBody))}
	}
	return respBody, nil
}

// trim returns at most n bytes from b.
func trim(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
