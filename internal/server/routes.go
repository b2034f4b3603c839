package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gi8lino/jirafind/internal/handlers"
	"github.com/gi8lino/jirafind/internal/jira"
)

// Deps are the collaborators of the API handlers.
type Deps struct {
	Searcher     jira.Searcher
	Browser      handlers.Browser
	Statuses     handlers.StatusSource
	ProjectKey   string
	InsertFormat string
}

// NewRouter creates the HTTP router, mounted under routePrefix ("" for root).
func NewRouter(deps Deps, logger *slog.Logger, debug bool, routePrefix string) http.Handler {
	root := http.NewServeMux()

	// Health checks (no logging)
	root.Handle("GET /healthz", handlers.Healthz())
	root.Handle("POST /healthz", handlers.Healthz())

	api := http.NewServeMux()
	api.Handle("GET /issues", handlers.IssuesHandler(deps.Searcher, deps.Browser, deps.ProjectKey, deps.InsertFormat, logger))
	api.Handle("GET /statuses", handlers.StatusesHandler(deps.Statuses, deps.ProjectKey, logger))

	var apiHandler http.Handler = api
	if debug {
		apiHandler = logRequests(apiHandler, logger)
	}
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", apiHandler))

	return mountUnderPrefix(root, routePrefix)
}

// NormalizeRoutePrefix returns "" or "/prefix" from input, accepting raw paths or full URLs.
func NormalizeRoutePrefix(input string) string {
	s := strings.TrimSpace(input)
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil {
			s = u.Path
		}
	}
	s = strings.Trim(strings.TrimSpace(s), "/")
	if s == "" {
		return ""
	}
	return "/" + s
}

// mountUnderPrefix serves h below prefix only; the bare prefix redirects to prefix/.
func mountUnderPrefix(h http.Handler, prefix string) http.Handler {
	if prefix == "" {
		return h
	}
	mux := http.NewServeMux()
	mux.Handle(prefix+"/", http.StripPrefix(prefix, h))
	return mux
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests logs method, path, status and duration of every request.
func logRequests(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
