package transport

import (
	"fmt"
	"net/url"
)

// RetryableStatusError reports an exchange that completed, but with a status
// code from the configured node-unhealthy set. It drives the retry loop and
// only reaches the caller as the cause of a MaxRetriesError.
type RetryableStatusError struct {
	URL        *url.URL
	StatusCode int
}

func (e *RetryableStatusError) Error() string {
	return fmt.Sprintf("node %s returned retryable status %d", e.URL, e.StatusCode)
}

// MaxRetriesError reports an exhausted retry budget. Err carries the most
// recent underlying failure, a *conn.Error or *RetryableStatusError, for
// diagnosis.
type MaxRetriesError struct {
	Attempts int
	Err      error
}

func (e *MaxRetriesError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *MaxRetriesError) Unwrap() error {
	return e.Err
}
