package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dusk-indust/transmute/internal/oracle"
	"github.com/dusk-indust/transmute/internal/retrieval"
)

// ErrNoPlan is returned by Run when Config.RequirePlan is set and the
// supervisor could not produce a plan.
var ErrNoPlan = errors.New("pipeline: supervisor produced no plan")

const tracerName = "github.com/dusk-indust/transmute/internal/orchestrator"

// Compile-time interface check.
var _ Orchestrator = (*Pipeline)(nil)

// Pipeline implements Orchestrator. It registers one LLMStage per catalog
// entry, plus the supervisor when one is supplied, and drives each run
// through its Router.
type Pipeline struct {
	cfg      Config
	router   *Router
	progress *ProgressReporter
	tracer   trace.Tracer
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithSupervisor registers h as the handler for StageSupervisor.
func WithSupervisor(h Handler) Option {
	return func(p *Pipeline) {
		p.router.Register(StageSupervisor, h)
	}
}

// WithHandler replaces the handler registered for id.
func WithHandler(id StageID, h Handler) Option {
	return func(p *Pipeline) {
		p.router.Register(id, h)
	}
}

// NewPipeline creates a Pipeline whose stages share one retriever and one
// oracle.
func NewPipeline(cfg Config, r retrieval.Retriever, o oracle.Oracle, opts ...Option) *Pipeline {
	if len(cfg.Stages) == 0 {
		cfg.Stages = DefaultStages()
	}
	if cfg.K <= 0 {
		cfg.K = retrieval.DefaultK
	}

	p := &Pipeline{
		cfg:      cfg,
		router:   NewRouter(),
		progress: NewProgressReporter(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, def := range cfg.Stages {
		p.router.Register(def.ID, NewLLMStage(def, r, o, StageOptions{K: cfg.K, Logger: cfg.Logger}))
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stages returns the worker catalog.
func (p *Pipeline) Stages() Catalog {
	return slices.Clone(p.cfg.Stages)
}

// Run drives a fresh state from req.Entry to the terminal stage. On any
// stage failure the error is returned and no result is produced.
func (p *Pipeline) Run(ctx context.Context, req Request) (res *Result, err error) {
	entry := req.Entry
	if entry == "" {
		entry = p.defaultEntry()
	}

	state, err := p.newState(req)
	if err != nil {
		return nil, err
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run.id", state.RunID),
		attribute.String("run.entry", entry.String()),
		attribute.String("run.service", state.Params.ServiceName),
	))
	defer span.End()
	defer func() {
		p.cfg.Metrics.ObserveRun(entry.String(), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	switch {
	case entry == StageSupervisor:
		// The supervisor seeds the queue.
		state.Current = StageSupervisor
	case p.cfg.Stages.Has(entry):
		state.Seed(p.cfg.Stages.From(entry))
	default:
		return nil, fmt.Errorf("pipeline: unknown entry stage %q", entry)
	}

	p.cfg.Logger.Info("run started", "run", state.RunID, "entry", entry, "queue", len(state.Queue))
	if err := p.drive(ctx, state); err != nil {
		return nil, err
	}
	p.cfg.Logger.Info("run complete", "run", state.RunID, "outputs", len(state.Outputs), "plan", state.PlanStatus)

	return state.Result(), nil
}

// RunStage runs exactly one declared worker stage over a fresh state seeded
// with req.Prior. req.Entry is ignored.
func (p *Pipeline) RunStage(ctx context.Context, req Request, stage StageID) (res *Result, err error) {
	if !p.cfg.Stages.Has(stage) {
		return nil, fmt.Errorf("pipeline: unknown stage %q", stage)
	}

	state, err := p.newState(req)
	if err != nil {
		return nil, err
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.run_stage", trace.WithAttributes(
		attribute.String("run.id", state.RunID),
		attribute.String("stage.id", stage.String()),
	))
	defer span.End()
	defer func() {
		p.cfg.Metrics.ObserveRun(stage.String(), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	state.Seed([]StageID{stage})
	if err := p.drive(ctx, state); err != nil {
		return nil, err
	}
	return state.Result(), nil
}

// Progress returns a channel that emits progress events.
func (p *Pipeline) Progress() <-chan ProgressEvent {
	return p.progress.Subscribe()
}

// Close shuts down the progress reporter. Callers should invoke this when the
// pipeline is no longer needed.
func (p *Pipeline) Close() {
	p.progress.Close()
}

func (p *Pipeline) defaultEntry() StageID {
	if p.router.Has(StageSupervisor) {
		return StageSupervisor
	}
	if len(p.cfg.Stages) == 0 {
		return StageTerminal
	}
	return p.cfg.Stages[0].ID
}

// newState validates req against the catalog and builds the run state.
func (p *Pipeline) newState(req Request) (*State, error) {
	for _, id := range slices.Sorted(maps.Keys(req.Inputs)) {
		if !p.cfg.Stages.Has(id) {
			return nil, fmt.Errorf("pipeline: input for undeclared stage %q", id)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(req.Prior)) {
		if !p.cfg.Stages.Has(id) {
			return nil, fmt.Errorf("pipeline: prior output for undeclared stage %q", id)
		}
	}

	state := NewState(p.cfg.Stages.IDs(), req.Inputs, req.Params)
	maps.Copy(state.Outputs, req.Prior)
	return state, nil
}

// drive dispatches until the state reaches the terminal stage.
func (p *Pipeline) drive(ctx context.Context, state *State) error {
	for !state.Current.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline: stage %q: %w", state.Current, err)
		}

		id := state.Current
		if err := p.step(ctx, state); err != nil {
			return err
		}

		if id == StageSupervisor && p.cfg.RequirePlan && !state.PlanStatus.OK() {
			p.cfg.Logger.Info("no plan produced, stopping", "run", state.RunID, "plan", state.PlanStatus)
			return ErrNoPlan
		}
	}
	return nil
}

func (p *Pipeline) step(ctx context.Context, state *State) error {
	id := state.Current
	title := p.title(id)

	ctx, span := p.tracer.Start(ctx, "pipeline.stage", trace.WithAttributes(
		attribute.String("run.id", state.RunID),
		attribute.String("stage.id", id.String()),
	))
	defer span.End()

	p.progress.Emit(ProgressEvent{
		RunID:   state.RunID,
		Stage:   id,
		Section: FormatStageHeader(state.Params.ServiceName, id, title),
		Status:  ProgressWorking,
	})

	start := time.Now()
	err := p.router.Dispatch(ctx, state)
	elapsed := time.Since(start)
	p.cfg.Metrics.ObserveStage(id.String(), elapsed, err)

	if err != nil {
		err = fmt.Errorf("pipeline: stage %q: %w", id, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.cfg.Logger.Error(err, "stage failed", "run", state.RunID, "stage", id)
		p.progress.Emit(ProgressEvent{
			RunID:   state.RunID,
			Stage:   id,
			Section: id.String(),
			Status:  ProgressFailed,
			Message: err.Error(),
		})
		return err
	}

	p.cfg.Logger.V(1).Info("stage complete", "run", state.RunID, "stage", id, "elapsed", elapsed, "next", state.Current)
	p.progress.Emit(ProgressEvent{
		RunID:   state.RunID,
		Stage:   id,
		Section: id.String(),
		Status:  ProgressComplete,
	})
	return nil
}

func (p *Pipeline) title(id StageID) string {
	if id == StageSupervisor {
		return "Supervisor"
	}
	if d, ok := p.cfg.Stages.Lookup(id); ok {
		return d.Title
	}
	return ""
}
