package jira

import (
	"crypto/tls"
	"net/http"
	"time"
)

// defaultTimeout caps a request when settings carry no timeout.
const defaultTimeout = 15 * time.Second

// newHTTPClient returns the client used for every Jira call. The transport is
// a clone of the default one, so proxy settings from the environment apply.
// All requests go to one host, so the idle pool is sized per host.
func newHTTPClient(skipVerify bool, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.MaxIdleConnsPerHost = 4
	tr.ResponseHeaderTimeout = timeout
	if skipVerify {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // nolint:gosec
	}

	return &http.Client{Timeout: timeout, Transport: tr}
}
