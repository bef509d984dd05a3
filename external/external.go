// Package external wraps the third-party APIs the trip planner calls.
// Every client is bounded by the timeout of the http.Client it is given.
package external

import (
	"errors"
	"net"
	"net/http"
	"time"
)

// ErrNotConfigured is returned without any network call when the API key
// for an integration is missing.
var ErrNotConfigured = errors.New("external: api key not configured")

// NewHTTPClient returns the client shared by the outbound integrations.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
