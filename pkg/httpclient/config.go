// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package httpclient

import (
	"net/http"
	"time"
)

// Config holds the configuration for the HTTP client
type Config struct {
	// Timeout bounds the whole request (connect, write, read)
	Timeout time.Duration

	// UserAgent is sent on every request when set
	UserAgent string

	// Transport overrides the base transport; nil uses http.DefaultTransport
	Transport http.RoundTripper
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
	}
}
