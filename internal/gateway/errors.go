package gateway

import (
	"errors"
	"fmt"
)

// HTTPError is returned when the remote API answers with a non-2xx status.
// Body holds the raw response text; Message holds the server's "message"
// field when the body was a JSON object carrying one.
type HTTPError struct {
	Op      string
	Status  int
	Body    string
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	body := e.Body
	if body == "" {
		body = "No response body"
	}
	return fmt.Sprintf("%s failed (HTTP %d): %s", e.Op, e.Status, body)
}

// DecodeError is returned when a 2xx response body is not the expected JSON.
type DecodeError struct {
	Op   string
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: invalid JSON response: %s", e.Op, e.Body)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StatusOf extracts the upstream HTTP status from err, or 0.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}
