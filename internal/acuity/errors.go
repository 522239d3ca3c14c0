package acuity

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when the Acuity credentials are missing.
// Every gateway call fails with it before any network I/O until the
// credentials are supplied.
var ErrNotConfigured = errors.New("acuity: credentials not configured")

// InvalidArgumentError reports a caller contract violation, e.g. passing
// multiple appointment type ids to a single-id endpoint. It is raised before
// any network call is made.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return "acuity: invalid argument: " + e.Reason
}

// ProviderError reports a non-success HTTP status from Acuity.
type ProviderError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("acuity: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// ValidationError reports a response body that failed schema validation.
// Raw carries the offending payload for diagnostics; it is never coerced
// into a partial result.
type ValidationError struct {
	Endpoint string
	Reason   string
	Raw      json.RawMessage
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("acuity: unexpected response from %s: %s", e.Endpoint, e.Reason)
}
