package net

import (
	"net/http"
	"time"
)

const (
	maxIdleConns    = 10
	idleConnTimeout = 60 * time.Second

	// TimeoutDefault bounds every registry call end to end.
	TimeoutDefault = 10 * time.Second
)

// UserAgent is sent with every request. The CLI sets it to include the build version.
var UserAgent = "varsig/v0.0.1-default"

// GetHTTPClient returns a client whose requests are bounded by timeout.
// A non-positive timeout falls back to TimeoutDefault.
func GetHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = TimeoutDefault
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          maxIdleConns,
			IdleConnTimeout:       idleConnTimeout,
			ResponseHeaderTimeout: timeout,
		},
	}
}
