package jira

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const redacted = "[REDACTED]"

// APIError is a non-2xx response from the tracker. Body has credentials
// removed.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tracker API error (%d): %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed when repeated.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

// IsNotFound reports whether err is a 404 from the tracker.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func isRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable()
}

// Redact replaces every occurrence of secret in text, raw or URL-encoded,
// with [REDACTED]. An empty secret leaves text unchanged.
func Redact(text, secret string) string {
	if secret == "" {
		return text
	}
	text = strings.ReplaceAll(text, secret, redacted)
	for _, encoded := range []string{url.QueryEscape(secret), url.PathEscape(secret)} {
		if encoded != secret {
			text = strings.ReplaceAll(text, encoded, redacted)
		}
	}
	return text
}
