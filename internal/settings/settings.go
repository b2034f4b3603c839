// Package settings holds the user's Jira connection and insertion settings.
package settings

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/containeroo/resolver"
	"github.com/gi8lino/jirafind/internal/insert"
)

// Settings is the immutable per-search configuration.
type Settings struct {
	JiraURL       string        `yaml:"jiraUrl"`
	Username      string        `yaml:"username"`
	APIToken      string        `yaml:"apiToken"` // plain token or resolver reference (env:, file:)
	ProjectKey    string        `yaml:"projectKey"`
	InsertFormat  string        `yaml:"insertFormat,omitempty"` // defaults to insert.DefaultFormat
	SkipTLSVerify bool          `yaml:"skipTLSVerify,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
	Debounce      time.Duration `yaml:"debounce,omitempty"`
	StatusTTL     time.Duration `yaml:"statusTTL,omitempty"`
}

// Default values for optional settings.
const (
	defaultTimeout   = 15 * time.Second
	defaultDebounce  = 300 * time.Millisecond
	defaultStatusTTL = time.Hour
)

// ErrIncomplete is returned when required fields are missing.
var ErrIncomplete = errors.New("settings incomplete")

// Validate checks all fields and reports every problem at once.
func (s Settings) Validate() error {
	var errs []string

	if strings.TrimSpace(s.JiraURL) == "" {
		errs = append(errs, "jiraUrl is required")
	} else if u, err := url.Parse(s.JiraURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("jiraUrl %q must be an absolute URL", s.JiraURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Sprintf("jiraUrl scheme %q must be http or https", u.Scheme))
	}
	if strings.TrimSpace(s.Username) == "" {
		errs = append(errs, "username is required")
	}
	if strings.TrimSpace(s.APIToken) == "" {
		errs = append(errs, "apiToken is required")
	}
	if strings.TrimSpace(s.ProjectKey) == "" {
		errs = append(errs, "projectKey is required")
	} else if strings.ContainsAny(s.ProjectKey, " \t\"") {
		errs = append(errs, fmt.Sprintf("projectKey %q must not contain spaces or quotes", s.ProjectKey))
	}
	if s.Timeout < 0 {
		errs = append(errs, "timeout must be >= 0")
	}
	if s.Debounce < 0 {
		errs = append(errs, "debounce must be >= 0")
	}
	if s.StatusTTL < 0 {
		errs = append(errs, "statusTTL must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrIncomplete, strings.Join(errs, "\n  - "))
	}
	return nil
}

// WithDefaults returns a copy with empty optional fields filled in.
func (s Settings) WithDefaults() Settings {
	s.JiraURL = strings.TrimRight(strings.TrimSpace(s.JiraURL), "/")
	s.ProjectKey = strings.ToUpper(strings.TrimSpace(s.ProjectKey))
	setDefault(&s.InsertFormat, insert.DefaultFormat)
	setDefault(&s.Timeout, defaultTimeout)
	setDefault(&s.Debounce, defaultDebounce)
	setDefault(&s.StatusTTL, defaultStatusTTL)
	return s
}

// Token returns the API token, resolving references like "env:JIRA_TOKEN"
// or "file:/run/secrets/jira".
func (s Settings) Token() (string, error) {
	tok, err := resolver.ResolveVariable(strings.TrimSpace(s.APIToken))
	if err != nil {
		return "", fmt.Errorf("resolve apiToken: %w", err)
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", fmt.Errorf("resolve apiToken: %w", ErrIncomplete)
	}
	return tok, nil
}

// setDefault assigns val to *dst only if *dst is the zero value.
func setDefault[T comparable](dst *T, val T) {
	var zero T
	if *dst == zero {
		*dst = val
	}
}
