// internal/backends/errors.go
// Package backends holds the machinery shared by every inference backend
// adapter: the provider enum, the error taxonomy, the retry policy, stream
// decoding, and the response extraction rules. Adapters live in
// subpackages and compose these helpers rather than embedding a base type.
package backends

import (
	"errors"
	"fmt"
	"net/http"
)

// TransientError marks a failure worth retrying: a non-2xx status or a
// connection-level fault. Status is zero when no HTTP status was received.
type TransientError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// MalformedResponseError marks a response body that could not be decoded or
// had an unexpected shape. It is never retried; a streaming attempt that
// hits one falls back to a buffered measurement instead.
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ErrEmptyStream is returned when a streaming response closes before a
// single usable chunk arrives. A stream that produced at least one chunk
// before an early close is a partial success, not an error.
var ErrEmptyStream = errors.New("stream closed before any usable chunk arrived")

// ErrUnsupportedProvider is returned by the factory before any network call
// when no adapter exists for the requested provider.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// IsTransient reports whether err should be retried by the retry policy.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsEndpointMissing reports whether err indicates the endpoint does not
// exist on the server (HTTP 404/405), the signal used for protocol
// discovery fallback.
func IsEndpointMissing(err error) bool {
	var transient *TransientError
	if !errors.As(err, &transient) {
		return false
	}
	return transient.Status == http.StatusNotFound || transient.Status == http.StatusMethodNotAllowed
}
