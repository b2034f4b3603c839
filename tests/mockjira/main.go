// Command mockjira serves a fixture project through the two Jira endpoints
// jirafind uses, so the panel can be tried without a real Jira site.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/containeroo/tinyflags"
	"gopkg.in/yaml.v3"
)

// Config is the mock server configuration root.
type Config struct {
	Port        int      `yaml:"port"`
	Project     string   `yaml:"project"`
	Me          string   `yaml:"me"` // display name matched by currentUser()
	Username    string   `yaml:"username,omitempty"`
	Token       string   `yaml:"token,omitempty"` // basic auth is enforced when set
	RandomDelay bool     `yaml:"randomDelay"`
	Statuses    []string `yaml:"statuses"`
	Issues      []Issue  `yaml:"issues"`
}

// Issue is one fixture issue.
type Issue struct {
	Key      string `yaml:"key"`
	Summary  string `yaml:"summary"`
	Status   string `yaml:"status"`
	Assignee string `yaml:"assignee,omitempty"`
	Parent   string `yaml:"parent,omitempty"`
	Updated  string `yaml:"updated,omitempty"`
}

// main starts the mock server with a required YAML fixture.
func main() {
	var flagConfigPath string

	tf := tinyflags.NewFlagSet("mockjira", tinyflags.ExitOnError)
	tf.StringVar(&flagConfigPath, "config", "", "Path to fixture yaml (required)").Value()

	if err := tf.Parse(os.Args[1:]); err != nil {
		log.Fatal("flag parse error:", err)
	}
	if strings.TrimSpace(flagConfigPath) == "" {
		log.Fatal("missing required --config=<path to yaml>")
	}

	cfg, err := loadConfig(flagConfigPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/3/search", cfg.wrap(cfg.handleSearch))
	mux.HandleFunc("GET /rest/api/3/project/{key}/statuses", cfg.wrap(cfg.handleStatuses))

	addr := ":" + strconv.Itoa(cfg.Port)
	log.Printf("Mock jira listening on %s (project %s, %d issues)", addr, cfg.Project, len(cfg.Issues))
	log.Fatal(http.ListenAndServe(addr, mux))
}

// loadConfig reads the fixture and applies defaults.
func loadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		cfg.Port = 8081
	}
	if strings.TrimSpace(cfg.Project) == "" {
		return Config{}, fmt.Errorf("project is required")
	}
	cfg.Project = strings.ToUpper(cfg.Project)
	return cfg, nil
}

// wrap adds auth, delay and request logging.
func (c Config) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("REQ %s %s?%s", r.Method, r.URL.Path, r.URL.RawQuery)
		if c.Token != "" {
			user, pass, ok := r.BasicAuth()
			if !ok || user != c.Username || pass != c.Token {
				http.Error(w, `{"errorMessages":["unauthorized"]}`, http.StatusUnauthorized)
				return
			}
		}
		if c.RandomDelay {
			applyRandomDelay(100, 900)
		}
		next(w, r)
	}
}

var (
	projectRe = regexp.MustCompile(`project = "([^"]*)"`)
	summaryRe = regexp.MustCompile(`summary ~ "([^"]*)\*"`)
	keyRe     = regexp.MustCompile(`key = "([^"]*)"`)
	statusRe  = regexp.MustCompile(`status in \(([^)]*)\)`)
	quotedRe  = regexp.MustCompile(`"([^"]*)"`)
)

// handleSearch evaluates the subset of JQL jirafind produces.
func (c Config) handleSearch(w http.ResponseWriter, r *http.Request) {
	jql := r.URL.Query().Get("jql")
	limit := 50
	if n, err := strconv.Atoi(r.URL.Query().Get("maxResults")); err == nil && n > 0 {
		limit = n
	}

	if m := projectRe.FindStringSubmatch(jql); m == nil || !strings.EqualFold(m[1], c.Project) {
		http.Error(w, `{"errorMessages":["unknown project"]}`, http.StatusBadRequest)
		return
	}

	var statuses []string
	if m := statusRe.FindStringSubmatch(jql); m != nil {
		for _, q := range quotedRe.FindAllStringSubmatch(m[1], -1) {
			statuses = append(statuses, q[1])
		}
	}
	mine := strings.Contains(jql, "assignee = currentUser()")
	var text, key string
	if m := summaryRe.FindStringSubmatch(jql); m != nil {
		text = strings.ToLower(m[1])
	}
	if m := keyRe.FindStringSubmatch(jql); m != nil {
		key = m[1]
	}

	issues := make([]map[string]any, 0)
	for _, is := range c.Issues {
		if len(issues) == limit {
			break
		}
		if mine && is.Assignee != c.Me {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, is.Status) {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(is.Summary), text) && is.Key != key {
			continue
		}
		issues = append(issues, is.toJSON())
	}
	writeJSON(w, map[string]any{"issues": issues})
}

// handleStatuses returns one issue type carrying all fixture statuses.
func (c Config) handleStatuses(w http.ResponseWriter, r *http.Request) {
	if !strings.EqualFold(r.PathValue("key"), c.Project) {
		http.Error(w, `{"errorMessages":["unknown project"]}`, http.StatusNotFound)
		return
	}
	statuses := make([]map[string]any, 0, len(c.Statuses))
	for i, s := range c.Statuses {
		statuses = append(statuses, map[string]any{"id": strconv.Itoa(i + 1), "name": s})
	}
	writeJSON(w, []map[string]any{{"id": "1", "name": "Task", "statuses": statuses}})
}

func (is Issue) toJSON() map[string]any {
	fields := map[string]any{
		"summary": is.Summary,
		"status":  map[string]any{"name": is.Status},
	}
	if is.Assignee != "" {
		fields["assignee"] = map[string]any{"displayName": is.Assignee}
	}
	if is.Updated != "" {
		fields["updated"] = is.Updated
	}
	if is.Parent != "" {
		fields["parent"] = map[string]any{"fields": map[string]any{"summary": is.Parent}}
	}
	return map[string]any{"key": is.Key, "fields": fields}
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// applyRandomDelay sleeps for a random duration between minMs and maxMs.
func applyRandomDelay(minMs, maxMs int) {
	if maxMs <= minMs {
		maxMs = minMs + 1
	}
	delta := rand.Intn(maxMs-minMs) + minMs
	time.Sleep(time.Duration(delta) * time.Millisecond)
}
