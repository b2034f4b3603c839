// Package handlers serves search results and project statuses over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"

	"github.com/gi8lino/jirafind/internal/cache"
	"github.com/gi8lino/jirafind/internal/jira"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON encodes v with an ETag. A matching If-None-Match yields 304.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode response", err)
		return
	}

	tag := etag(data)
	w.Header().Set("ETag", tag)
	if status == http.StatusOK && r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) // nolint:errcheck
}

// writeError writes an errorBody. Never panics; always writes something.
func writeError(w http.ResponseWriter, status int, msg string, cause error) {
	body := errorBody{Error: http.StatusText(status), Message: msg}
	if cause != nil {
		body.Message = msg + ": " + cause.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) // nolint:errcheck
}

// upstreamStatus maps a fetch error to the response status.
func upstreamStatus(err error) int {
	var se *jira.StatusError
	switch {
	case errors.Is(err, cache.ErrNoStatuses):
		return http.StatusNotFound
	case errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden):
		return se.Code
	case errors.As(err, &se) && (se.Code == http.StatusBadRequest || se.Code == http.StatusNotFound):
		return se.Code
	default:
		return http.StatusBadGateway
	}
}

// etag returns a quoted FNV-1a 64-bit hash of data.
func etag(data []byte) string {
	h := fnv.New64a()
	h.Write(data) // nolint:errcheck
	return fmt.Sprintf(`"%x"`, h.Sum64())
}
