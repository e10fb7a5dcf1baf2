package orchestrator

import (
	"github.com/go-logr/logr"

	"github.com/dusk-indust/transmute/internal/metrics"
)

// Config holds runtime configuration for a Pipeline.
type Config struct {
	// Stages is the worker catalog. Defaults to DefaultStages().
	Stages Catalog

	// K is the number of passages each stage retrieves.
	K int

	// RequirePlan makes a failed supervisor plan fatal (ErrNoPlan).
	RequirePlan bool

	Logger  logr.Logger
	Metrics *metrics.Metrics
}
