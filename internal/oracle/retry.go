package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-logr/logr"
)

// RetryOptions configures WithRetry.
type RetryOptions struct {
	// MaxTries is the total number of attempts, including the first.
	MaxTries uint

	// InitialInterval is the first backoff delay. Defaults to one second.
	InitialInterval time.Duration

	// MaxInterval caps the backoff delay. Defaults to thirty seconds.
	MaxInterval time.Duration

	Logger logr.Logger
}

type retrying struct {
	next Oracle
	opts RetryOptions
}

// WithRetry retries transient failures of next with exponential backoff.
// Context errors, ErrEmptyResponse and non-retryable HTTP statuses fail
// immediately.
func WithRetry(next Oracle, opts RetryOptions) Oracle {
	if opts.MaxTries <= 1 {
		return next
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = time.Second
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = 30 * time.Second
	}
	return &retrying{next: next, opts: opts}
}

func (r *retrying) Invoke(ctx context.Context, prompt string) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.opts.InitialInterval
	b.MaxInterval = r.opts.MaxInterval

	attempt := 0
	return backoff.Retry(ctx, func() (string, error) {
		attempt++
		out, err := r.next.Invoke(ctx, prompt)
		if err == nil {
			return out, nil
		}
		if !retryable(err) {
			return "", backoff.Permanent(err)
		}
		r.opts.Logger.V(1).Info("oracle call failed, retrying", "attempt", attempt, "error", err.Error())
		return "", err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.opts.MaxTries),
	)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrEmptyResponse) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	return true
}
