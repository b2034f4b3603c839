package jira

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("derives the v3 api url from the site url", func(t *testing.T) {
		t.Parallel()

		client := NewClient(mustParseURL(t, "https://acme.atlassian.net/"), NewBasicAuth("u", "p"), true, 2*time.Second)

		assert.Equal(t, "https://acme.atlassian.net/rest/api/3/", client.APIURL.String())
		assert.Equal(t, 2*time.Second, client.Client.Timeout)
		assert.NotNil(t, client.auth)
	})

	t.Run("keeps a context path", func(t *testing.T) {
		t.Parallel()

		client := NewClient(mustParseURL(t, "https://jira.example.com/jira"), nil, false, 0)

		assert.Equal(t, "https://jira.example.com/jira/rest/api/3/", client.APIURL.String())
		assert.Equal(t, defaultTimeout, client.Client.Timeout)
	})
}

func TestBrowseURL(t *testing.T) {
	t.Parallel()

	client := NewClient(mustParseURL(t, "https://acme.atlassian.net"), nil, false, 0)
	assert.Equal(t, "https://acme.atlassian.net/browse/ABC-1", client.BrowseURL("ABC-1"))
}

func TestSearchIssues(t *testing.T) {
	t.Parallel()

	t.Run("empty JQL returns error", func(t *testing.T) {
		t.Parallel()

		c := &Client{}
		issues, err := c.SearchIssues(context.Background(), "   ", 20)

		assert.Error(t, err)
		assert.Nil(t, issues)
	})

	t.Run("sends jql, result cap and credentials", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/rest/api/3/search", r.URL.Path)
			assert.Equal(t, `project = "ABC" ORDER BY updated DESC`, r.URL.Query().Get("jql"))
			assert.Equal(t, "20", r.URL.Query().Get("maxResults"))
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "me@example.com", user)
			assert.Equal(t, "tok", pass)
			w.Write([]byte(`{"issues":[
				{"key":"ABC-2","fields":{"summary":"Second","status":{"name":"Done"},
				 "parent":{"key":"ABC-1","fields":{"summary":"Epic"}},
				 "assignee":{"displayName":"Jane","avatarUrls":{"48x48":"https://a/48.png"}}}},
				{"key":"ABC-1","fields":{"summary":"First","status":{"name":"To Do"}}}
			]}`)) // nolint:errcheck
		}))
		defer srv.Close()

		client := NewClient(mustParseURL(t, srv.URL), NewBasicAuth("me@example.com", "tok"), false, time.Second)
		issues, err := client.SearchIssues(context.Background(), `project = "ABC" ORDER BY updated DESC`, 50)

		require.NoError(t, err)
		require.Len(t, issues, 2)
		assert.Equal(t, "ABC-2", issues[0].Key)
		assert.Equal(t, "Done", issues[0].Fields.Status.Name)
		require.NotNil(t, issues[0].Fields.Parent)
		assert.Equal(t, "Epic", issues[0].Fields.Parent.Fields.Summary)
		require.NotNil(t, issues[0].Fields.Assignee)
		assert.Equal(t, "https://a/48.png", issues[0].Fields.Assignee.AvatarURL())
		assert.Nil(t, issues[1].Fields.Parent)
		assert.Nil(t, issues[1].Fields.Assignee)
	})

	t.Run("missing issues array yields empty slice", func(t *testing.T) {
		t.Parallel()

		client := stubClient(t, http.StatusOK, `{}`)
		issues, err := client.SearchIssues(context.Background(), "project = X", 5)

		require.NoError(t, err)
		assert.NotNil(t, issues)
		assert.Empty(t, issues)
	})

	t.Run("non-2xx returns StatusError", func(t *testing.T) {
		t.Parallel()

		client := stubClient(t, http.StatusBadRequest, `{"errorMessages":["bad jql"]}`)
		_, err := client.SearchIssues(context.Background(), "project = X", 5)

		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusBadRequest, se.Code)
		assert.Contains(t, err.Error(), "400")
		assert.Contains(t, err.Error(), "bad jql")
	})

	t.Run("invalid JSON returns decode error", func(t *testing.T) {
		t.Parallel()

		client := stubClient(t, http.StatusOK, `{nope`)
		_, err := client.SearchIssues(context.Background(), "project = X", 5)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "decode search result")
	})

	t.Run("cancelled context is reported as context.Canceled", func(t *testing.T) {
		t.Parallel()

		client := &Client{
			APIURL: mustParseURL(t, "https://example.com/rest/api/3/"),
			Client: &http.Client{
				Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
					<-r.Context().Done()
					return nil, r.Context().Err()
				}),
			},
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.SearchIssues(ctx, "project = X", 5)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestProjectStatuses(t *testing.T) {
	t.Parallel()

	t.Run("missing project key returns error", func(t *testing.T) {
		t.Parallel()

		c := &Client{}
		_, err := c.ProjectStatuses(context.Background(), " ")
		assert.Error(t, err)
	})

	t.Run("merges statuses across issue types", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/rest/api/3/project/ABC/statuses", r.URL.Path)
			w.Write([]byte(`[
				{"id":"1","name":"Task","statuses":[
					{"id":"10","name":"To Do","statusCategory":{"id":2,"key":"new","colorName":"blue-gray","name":"To Do"}},
					{"id":"11","name":"Done","statusCategory":{"id":3,"key":"done","colorName":"green","name":"Done"}}
				]},
				{"id":"2","name":"Bug","statuses":[
					{"id":"11","name":"Done"},
					{"id":"12","name":"In Review"}
				]}
			]`)) // nolint:errcheck
		}))
		defer srv.Close()

		client := NewClient(mustParseURL(t, srv.URL), nil, false, time.Second)
		statuses, err := client.ProjectStatuses(context.Background(), "ABC")

		require.NoError(t, err)
		require.Len(t, statuses, 3)
		assert.Equal(t, "To Do", statuses[0].Name)
		assert.Equal(t, "Done", statuses[1].Name)
		assert.Equal(t, "In Review", statuses[2].Name)
		require.NotNil(t, statuses[0].StatusCategory)
		assert.Equal(t, "new", statuses[0].StatusCategory.Key)
	})

	t.Run("empty response yields empty slice", func(t *testing.T) {
		t.Parallel()

		client := stubClient(t, http.StatusOK, `[]`)
		statuses, err := client.ProjectStatuses(context.Background(), "ABC")

		require.NoError(t, err)
		assert.Empty(t, statuses)
	})

	t.Run("non-2xx returns StatusError", func(t *testing.T) {
		t.Parallel()

		client := stubClient(t, http.StatusNotFound, "not found")
		_, err := client.ProjectStatuses(context.Background(), "ABC")

		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusNotFound, se.Code)
		assert.Equal(t, "not found", se.Body)
	})
}

func TestDoRequest(t *testing.T) {
	t.Parallel()

	t.Run("returns error for invalid URL path", func(t *testing.T) {
		t.Parallel()

		c := NewClient(mustParseURL(t, "https://example.com"), nil, false, 2*time.Second)
		_, err := c.doRequest(context.Background(), http.MethodGet, "%%%")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "parse path")
	})

	t.Run("returns error on client.Do failure", func(t *testing.T) {
		t.Parallel()

		client := &Client{
			APIURL: mustParseURL(t, "https://example.com/rest/api/3/"),
			Client: &http.Client{
				Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
					return nil, errors.New("connection refused")
				}),
			},
		}

		_, err := client.doRequest(context.Background(), http.MethodGet, "foo")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "do request")
	})

	t.Run("returns error when body cannot be read", func(t *testing.T) {
		t.Parallel()

		client := &Client{
			APIURL: mustParseURL(t, "https://example.com/rest/api/3/"),
			Client: &http.Client{
				Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
					return &http.Response{StatusCode: http.StatusOK, Body: brokenReader{}}, nil
				}),
			},
		}

		_, err := client.doRequest(context.Background(), http.MethodGet, "search")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "read response")
	})

	t.Run("trims long error bodies", func(t *testing.T) {
		t.Parallel()

		client := stubClient(t, http.StatusInternalServerError, string(bytes.Repeat([]byte("x"), 5000)))
		_, err := client.doRequest(context.Background(), http.MethodGet, "foo")

		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Len(t, se.Body, maxErrorBody)
	})

	t.Run("sets json headers", func(t *testing.T) {
		t.Parallel()

		client := &Client{
			APIURL: mustParseURL(t, "https://example.com/rest/api/3/"),
			Client: &http.Client{
				Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
					assert.Equal(t, "application/json", r.Header.Get("Accept"))
					assert.Equal(t, "https://example.com/rest/api/3/foo", r.URL.String())
					return &http.Response{
						StatusCode: http.StatusOK,
						Body:       io.NopCloser(bytes.NewBufferString(`{"ok":true}`)),
					}, nil
				}),
			},
		}

		body, err := client.doRequest(context.Background(), http.MethodGet, "foo")

		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(body))
	})
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "jira returned 401", (&StatusError{Code: 401}).Error())
	assert.Equal(t, "jira returned 403: nope", (&StatusError{Code: 403, Body: "nope"}).Error())
}

// stubClient returns a Client whose transport always answers with status and body.
func stubClient(t *testing.T, status int, body string) *Client {
	t.Helper()

	return &Client{
		APIURL: mustParseURL(t, "https://example.com/rest/api/3/"),
		Client: &http.Client{
			Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: status,
					Body:       io.NopCloser(bytes.NewBufferString(body)),
				}, nil
			}),
		},
	}
}

// brokenReader always fails
type brokenReader struct{}

func (brokenReader) Read(p []byte) (int, error) { return 0, errors.New("fail") }
func (brokenReader) Close() error               { return nil }

type roundTripperFunc func(r *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()

	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}
