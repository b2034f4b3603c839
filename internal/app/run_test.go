package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gi8lino/jirafind/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJira serves the two endpoints jirafind uses and records search JQL.
type fakeJira struct {
	mu   sync.Mutex
	jqls []string
	fail bool
}

func (f *fakeJira) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/3/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.jqls = append(f.jqls, r.URL.Query().Get("jql"))
		fail := f.fail
		f.mu.Unlock()

		if fail {
			http.Error(w, `{"errorMessages":["boom"]}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"issues":[
			{"key":"ABC-1","fields":{"summary":"Fix login","status":{"name":"Done"}}},
			{"key":"ABC-2","fields":{"summary":"Login page","status":{"name":"To Do"},"assignee":{"displayName":"Jane"}}}
		]}`) // nolint:errcheck
	})
	mux.HandleFunc("GET /rest/api/3/project/{key}/statuses", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":"1","name":"Task","statuses":[{"id":"10","name":"To Do"},{"id":"11","name":"Done"}]}]`) // nolint:errcheck
	})
	return mux
}

func (f *fakeJira) lastJQL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.jqls) == 0 {
		return ""
	}
	return f.jqls[len(f.jqls)-1]
}

// writeSettings writes a settings file pointing at url.
func writeSettings(t *testing.T, url string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := fmt.Sprintf(`
jiraUrl: %s
username: me@example.com
apiToken: secret
projectKey: ABC
insertFormat: "{key}: {summary}"
debounce: 1ms
`, url)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func dummyEnv(string) string { return "" }

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("help requested prints usage and returns nil", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		err := app.Run(t.Context(), "v1.2.3", []string{"--help"}, &out, dummyEnv)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Usage")
	})

	t.Run("version requested prints version and returns nil", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		err := app.Run(t.Context(), "v1.2.3", []string{"--version"}, &out, dummyEnv)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "v1.2.3")
	})

	t.Run("invalid flag", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		err := app.Run(t.Context(), "v1", []string{"--nope"}, &out, dummyEnv)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing error")
	})

	t.Run("missing settings are reported", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		args := []string{"--mode=once", "--settings=" + filepath.Join(t.TempDir(), "none.yaml")}
		err := app.Run(t.Context(), "v1", args, &out, dummyEnv)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jiraUrl is required")
		assert.Contains(t, err.Error(), "projectKey is required")
	})

	t.Run("once prints rendered rows", func(t *testing.T) {
		t.Parallel()

		jira := &fakeJira{}
		srv := httptest.NewServer(jira.handler())
		defer srv.Close()

		var out bytes.Buffer
		args := []string{
			"--mode=once",
			"--settings=" + writeSettings(t, srv.URL),
			"--query=login",
			"--status=Done",
			"--mine",
			"--row-template={{ .Index }} {{ .Key }} {{ assignee .Issue }}",
		}
		err := app.Run(t.Context(), "v1", args, &out, dummyEnv)
		require.NoError(t, err)

		assert.Contains(t, out.String(), "1 ABC-1 Unassigned\n2 ABC-2 Jane\n")
		assert.Equal(t, `project = "ABC" AND assignee = currentUser() AND status in ("Done") AND (summary ~ "login*" OR key = "ABC-LOGIN") ORDER BY updated DESC`, jira.lastJQL())
	})

	t.Run("once inserts the first hit into a document", func(t *testing.T) {
		t.Parallel()

		jira := &fakeJira{}
		srv := httptest.NewServer(jira.handler())
		defer srv.Close()

		doc := filepath.Join(t.TempDir(), "notes.md")
		require.NoError(t, os.WriteFile(doc, []byte("See "), 0o644))

		var out bytes.Buffer
		args := []string{"--mode=once", "--settings=" + writeSettings(t, srv.URL), "--doc=" + doc}
		require.NoError(t, app.Run(t.Context(), "v1", args, &out, dummyEnv))

		data, err := os.ReadFile(doc)
		require.NoError(t, err)
		assert.Equal(t, "See ABC-1: Fix login", string(data))
		assert.Contains(t, out.String(), "Inserted ABC-1: Fix login")
	})

	t.Run("once surfaces search failures", func(t *testing.T) {
		t.Parallel()

		jira := &fakeJira{fail: true}
		srv := httptest.NewServer(jira.handler())
		defer srv.Close()

		var out bytes.Buffer
		args := []string{"--mode=once", "--settings=" + writeSettings(t, srv.URL)}
		err := app.Run(t.Context(), "v1", args, &out, dummyEnv)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("flags override the settings file and can be saved", func(t *testing.T) {
		t.Parallel()

		jira := &fakeJira{}
		srv := httptest.NewServer(jira.handler())
		defer srv.Close()

		settingsPath := writeSettings(t, "https://unused.example")
		var out bytes.Buffer
		args := []string{
			"--mode=once",
			"--settings=" + settingsPath,
			"--jira-url=" + srv.URL,
			"--project=xyz",
			"--save-settings",
		}
		require.NoError(t, app.Run(t.Context(), "v1", args, &out, dummyEnv))
		assert.True(t, strings.HasPrefix(jira.lastJQL(), `project = "XYZ"`))

		saved, err := os.ReadFile(settingsPath)
		require.NoError(t, err)
		assert.Contains(t, string(saved), "projectKey: XYZ")
		assert.Contains(t, string(saved), srv.URL)
	})

	t.Run("serve answers until the context ends", func(t *testing.T) {
		t.Parallel()

		jira := &fakeJira{}
		srv := httptest.NewServer(jira.handler())
		defer srv.Close()

		ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond)
		defer cancel()

		var out bytes.Buffer
		args := []string{
			"--mode=serve",
			"--settings=" + writeSettings(t, srv.URL),
			"--listen-address=127.0.0.1:0",
		}
		require.NoError(t, app.Run(ctx, "v1", args, &out, dummyEnv))
	})

	t.Run("json logs in once mode", func(t *testing.T) {
		t.Parallel()

		jira := &fakeJira{}
		srv := httptest.NewServer(jira.handler())
		defer srv.Close()

		var out bytes.Buffer
		args := []string{"--mode=once", "--log-format=json", "--settings=" + writeSettings(t, srv.URL), "--row-template={{ .Key }}"}
		require.NoError(t, app.Run(t.Context(), "v1", args, &out, dummyEnv))

		first, _, _ := strings.Cut(out.String(), "\n")
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(first), &entry))
		assert.Equal(t, "Starting jirafind", entry["msg"])
	})
}
