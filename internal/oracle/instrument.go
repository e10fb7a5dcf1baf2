package oracle

import (
	"context"
	"time"

	"github.com/dusk-indust/transmute/internal/metrics"
)

type instrumented struct {
	next     Oracle
	provider string
	metrics  *metrics.Metrics
}

// WithMetrics records the count and duration of calls to next.
func WithMetrics(next Oracle, provider string, m *metrics.Metrics) Oracle {
	if m == nil {
		return next
	}
	return &instrumented{next: next, provider: provider, metrics: m}
}

func (i *instrumented) Invoke(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := i.next.Invoke(ctx, prompt)
	i.metrics.ObserveOracle(i.provider, time.Since(start), err)
	return out, err
}
