package flag

import (
	"io"
	"net"
	"path/filepath"
	"slices"
	"strings"

	"github.com/containeroo/tinyflags"
	"github.com/gi8lino/jirafind/internal/logging"
	"github.com/gi8lino/jirafind/internal/server"
	"github.com/gi8lino/jirafind/internal/settings"
)

// Mode selects how jirafind runs.
type Mode string

const (
	ModePanel Mode = "panel" // interactive terminal panel
	ModeOnce  Mode = "once"  // one search, printed to stdout
	ModeServe Mode = "serve" // HTTP API
)

// Config aggregates CLI flags after parsing.
type Config struct {
	Settings     string            // Path to the settings file
	SaveSettings bool              // Write the effective settings back to Settings
	Debug        bool              // Enables debug logging
	LogFormat    logging.LogFormat // Log output format (text or json)
	Mode         Mode              // Run mode
	Query        string            // Initial free-text query
	MineOnly     bool              // Start with "assigned to me"
	Statuses     []string          // Initial status filter
	Document     string            // File to insert into
	Clipboard    bool              // Insert into the clipboard instead of a file
	RowTemplate  string            // text/template for result rows
	ListenAddr   string            // HTTP bind address for serve mode
	RoutePrefix  string            // Canonical path prefix ("" or "/jirafind")

	// Overrides applied on top of the settings file; empty means unset.
	Overrides settings.Settings
}

// DefaultRowTemplate renders one result line.
const DefaultRowTemplate = `{{ .Key }}  {{ .Fields.Status.Name | printf "%-12s" }}  {{ .Fields.Updated | formatJiraDate "2006-01-02" | printf "%-10s" }}  {{ .Fields.Summary | trunc 60 }}`

// ParseArgs parses CLI args into Config, handling version/help flags.
func ParseArgs(version string, args []string, out io.Writer, getEnv func(string) string) (Config, error) {
	var cfg Config
	tf := tinyflags.NewFlagSet("jirafind", tinyflags.ContinueOnError)
	tf.Version(version)
	tf.SetGetEnvFn(getEnv)
	tf.EnvPrefix("JIRAFIND")
	tf.SetOutput(out)

	// Settings
	tf.StringVar(&cfg.Settings, "settings", settings.DefaultPath(), "Path to settings file").
		Finalize(absPath).
		Placeholder("FILE").
		Value()
	tf.BoolVar(&cfg.SaveSettings, "save-settings", false, "Write the effective settings back to the settings file").Value()
	tf.StringVar(&cfg.Overrides.JiraURL, "jira-url", "", "Jira site URL (overrides settings)").Placeholder("URL").Value()
	tf.StringVar(&cfg.Overrides.Username, "username", "", "Jira username (overrides settings)").Value()
	tf.StringVar(&cfg.Overrides.APIToken, "api-token", "", "Jira API token or reference like env:NAME (overrides settings)").
		Placeholder("TOKEN").
		Value()
	tf.StringVar(&cfg.Overrides.ProjectKey, "project", "", "Jira project key (overrides settings)").
		Finalize(strings.ToUpper).
		Short("p").
		Value()
	tf.StringVar(&cfg.Overrides.InsertFormat, "insert-format", "", "Insert format with {key} {summary} {author} {status} {parent} {url}").
		Value()

	// Search
	mode := tf.String("mode", string(ModePanel), "Run mode").
		Choices(string(ModePanel), string(ModeOnce), string(ModeServe)).
		Short("m").
		Value()
	tf.StringVar(&cfg.Query, "query", "", "Initial search text").Short("q").Value()
	tf.BoolVar(&cfg.MineOnly, "mine", false, "Only issues assigned to me").Value()
	statuses := tf.String("status", "", "Comma separated status filter").Placeholder("A,B").Value()

	// Output
	tf.StringVar(&cfg.Document, "doc", "", "File to insert the chosen issue into").
		Finalize(func(s string) string {
			if s == "" {
				return s
			}
			return absPath(s)
		}).
		Placeholder("FILE").
		Value()
	tf.BoolVar(&cfg.Clipboard, "clipboard", false, "Insert into the clipboard").Value()
	tf.StringVar(&cfg.RowTemplate, "row-template", DefaultRowTemplate, "Go template for result rows").Value()
	listenAddr := tf.TCPAddr("listen-address", &net.TCPAddr{IP: nil, Port: 8080}, "HTTP server listen address (serve mode)").
		Placeholder("ADDR:PORT").
		Value()

	tf.StringVar(&cfg.RoutePrefix, "route-prefix", "", "Path prefix to mount the API (e.g., /jirafind). Empty = root.").
		Finalize(server.NormalizeRoutePrefix).
		Placeholder("PATH").
		Value()

	// Logging
	tf.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging").Value()
	logFormat := tf.String("log-format", "text", "Log format").Choices("text", "json").Short("l").Value()

	// Parse
	if err := tf.Parse(args); err != nil {
		return Config{}, err
	}

	// Post-parse
	cfg.Mode = Mode(*mode)
	cfg.LogFormat = logging.LogFormat(*logFormat)
	cfg.ListenAddr = (*listenAddr).String()
	cfg.Statuses = splitList(*statuses)

	return cfg, nil
}

// Apply layers non-empty overrides on top of s.
func (c Config) Apply(s settings.Settings) settings.Settings {
	o := c.Overrides
	override(&s.JiraURL, o.JiraURL)
	override(&s.Username, o.Username)
	override(&s.APIToken, o.APIToken)
	override(&s.ProjectKey, o.ProjectKey)
	override(&s.InsertFormat, o.InsertFormat)
	return s
}

func override(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

// splitList splits a comma separated list, dropping blanks and repeats.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func absPath(s string) string {
	if filepath.IsAbs(s) {
		return s
	}
	path, err := filepath.Abs(s)
	if err != nil {
		return s
	}
	return path
}
