package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrNotConfigured is returned before any network activity when no API key is set.
	ErrNotConfigured = errors.New("llm: API key not configured")
	// ErrServiceUnreachable covers transport failures, timeouts and provider overload.
	ErrServiceUnreachable = errors.New("llm: service unreachable")
	// ErrUnauthorized is returned when the provider rejects the API key.
	ErrUnauthorized = errors.New("llm: unauthorized")
	// ErrMalformedResponse is returned for a 2xx response without a usable text completion.
	ErrMalformedResponse = errors.New("llm: malformed response")
)

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "llm: API error (status %d)", e.StatusCode)
	if e.Type != "" {
		b.WriteString(" ")
		b.WriteString(e.Type)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " (request %s)", e.RequestID)
	}
	return b.String()
}

// Is lets errors.Is match the sentinel that corresponds to the status code.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrServiceUnreachable:
		// 529 is Anthropic's "overloaded"
		return e.StatusCode >= 500
	}
	return false
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("request-id"),
	}

	var payload struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Type != "" {
		apiErr.Type = payload.Error.Type
		apiErr.Message = payload.Error.Message
	} else {
		apiErr.Message = truncate(strings.TrimSpace(string(body)), 200)
	}
	return apiErr
}

func classifyTransportError(err error) error {
	var urlErr *url.Error
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &urlErr),
		errors.As(err, &netErr):
		return fmt.Errorf("%w: %v", ErrServiceUnreachable, err)
	}
	return fmt.Errorf("failed to send request: %w", err)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
