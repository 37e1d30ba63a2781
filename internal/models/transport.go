package models

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// LoggingTransport logs each outgoing request of a remote provider at debug
// level. Headers are never logged since they carry credentials.
type LoggingTransport struct {
	// wrapped is the underlying HTTP transport to use for actual requests
	wrapped  http.RoundTripper
	logger   *log.Logger
	provider string
}

// NewLoggingTransport wraps base, or http.DefaultTransport when base is nil.
func NewLoggingTransport(base http.RoundTripper, logger *log.Logger, provider string) *LoggingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &LoggingTransport{wrapped: base, logger: logger, provider: provider}
}

// RoundTrip implements http.RoundTripper.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.wrapped.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		t.logger.Debug("provider request failed",
			"provider", t.provider, "method", req.Method, "url", req.URL.Redacted(),
			"elapsed", elapsed, "err", err)
		return nil, err
	}
	t.logger.Debug("provider request",
		"provider", t.provider, "method", req.Method, "url", req.URL.Redacted(),
		"status", resp.StatusCode, "elapsed", elapsed)
	return resp, nil
}
