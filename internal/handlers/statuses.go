package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gi8lino/jirafind/internal/cache"
	"github.com/gi8lino/jirafind/internal/jira"
)

// StatusSource lists the statuses of a project.
type StatusSource interface {
	Statuses(ctx context.Context, projectKey string) ([]jira.Status, error)
}

// StatusesHandler returns the project's statuses, served from the status cache.
// refresh=true bypasses the cache.
func StatusesHandler(src StatusSource, projectKey string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
			ctx = cache.WithRefresh(ctx)
		}
		statuses, err := src.Statuses(ctx, projectKey)
		if err != nil {
			status := upstreamStatus(err)
			logger.Error("load statuses failed", "project", projectKey, "status", status, "error", err)
			writeError(w, status, "load statuses failed", err)
			return
		}
		writeJSON(w, r, http.StatusOK, statuses)
	}
}
