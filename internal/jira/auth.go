package jira

import (
	"net/http"
	"strings"
)

// AuthFunc applies authentication to an outgoing request.
type AuthFunc func(r *http.Request)

// NewBasicAuth returns an AuthFunc that sets Basic auth from username and API token.
func NewBasicAuth(username, token string) AuthFunc {
	username = strings.TrimSpace(username)
	token = strings.TrimSpace(token)
	return func(r *http.Request) {
		r.SetBasicAuth(username, token)
	}
}

// MaskedAuthorization returns the Authorization header auth would set, with the
// credential obfuscated: scheme, first 2 and last 2 characters are kept.
// Example: "Basic dZ*********X1"
func MaskedAuthorization(auth AuthFunc) string {
	if auth == nil {
		return ""
	}
	req, _ := http.NewRequest(http.MethodGet, "https://dummy", nil)
	auth(req)
	header := req.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok {
		return "[invalid header]"
	}
	token = strings.TrimSpace(token)

	n := len(token)
	if n <= 4 {
		return scheme + " " + strings.Repeat("*", n)
	}
	return scheme + " " + token[:2] + strings.Repeat("*", n-4) + token[n-2:]
}
