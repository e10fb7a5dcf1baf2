// Package oracle provides the text-generation backends a pipeline stage
// calls, plus decorators for retry, caching and instrumentation.
//
// An Oracle is synchronous: Invoke blocks until the backend answers or ctx
// is done. Failures are returned to the caller unchanged apart from
// wrapping; nothing in this package swallows an error.
package oracle

import (
	"context"
	"errors"
	"fmt"
)

// Oracle generates text for a prompt.
type Oracle interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("oracle: empty response")

// HTTPError is a non-success HTTP status returned by a backend.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("oracle: %s: HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Temporary reports whether the status is worth retrying.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
