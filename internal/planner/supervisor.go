// Package planner implements the supervisor stage: it asks the oracle for an
// advisory plan describing each worker stage, then seeds the fixed stage
// queue. The plan never changes which stages run or in what order.
package planner

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-logr/logr"

	"github.com/dusk-indust/transmute/internal/metrics"
	"github.com/dusk-indust/transmute/internal/oracle"
	"github.com/dusk-indust/transmute/internal/orchestrator"
	"github.com/dusk-indust/transmute/internal/prompts"
	"github.com/dusk-indust/transmute/internal/retrieval"
)

// Query is the retrieval query used for planning context.
const Query = "webMethods transformation to microservices"

// Options configures a Supervisor.
type Options struct {
	// K is the number of passages retrieved. Defaults to retrieval.DefaultK.
	K       int
	Logger  logr.Logger
	Metrics *metrics.Metrics
}

// Supervisor is the handler for orchestrator.StageSupervisor.
type Supervisor struct {
	stages    orchestrator.Catalog
	retriever retrieval.Retriever
	oracle    oracle.Oracle
	tmpl      *template.Template
	opts      Options
}

var _ orchestrator.Handler = (*Supervisor)(nil)

// NewSupervisor creates a supervisor that plans for stages.
func NewSupervisor(stages orchestrator.Catalog, r retrieval.Retriever, o oracle.Oracle, opts Options) *Supervisor {
	if r == nil {
		r = retrieval.Empty()
	}
	if opts.K <= 0 {
		opts.K = retrieval.DefaultK
	}
	return &Supervisor{
		stages:    stages,
		retriever: r,
		oracle:    o,
		tmpl:      prompts.MustLoad("supervisor"),
		opts:      opts,
	}
}

// Outcome is the result of one planning call.
type Outcome struct {
	Plan    orchestrator.Plan       `json:"plan"`
	Status  orchestrator.PlanStatus `json:"status"`
	Context string                  `json:"-"`
	Raw     string                  `json:"raw,omitempty"`
}

// Plan asks the oracle for a plan for request. A malformed answer is not an
// error; it yields status failed. Retrieval and oracle errors are returned.
func (s *Supervisor) Plan(ctx context.Context, request string) (*Outcome, error) {
	retrieved, err := s.retriever.Query(ctx, Query, s.opts.K)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	prompt, err := s.prompt(retrieved, request)
	if err != nil {
		return nil, err
	}

	raw, err := s.oracle.Invoke(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	s.opts.Logger.V(1).Info("supervisor response", "raw", raw)

	plan, status := ParsePlan(raw)
	s.opts.Metrics.ObservePlan(string(status))
	if !status.OK() {
		s.opts.Logger.Info("supervisor returned no usable plan", "chars", len(raw))
	}

	return &Outcome{Plan: plan, Status: status, Context: retrieved, Raw: raw}, nil
}

// Handle plans once per state and seeds the queue with every declared stage
// in catalog order.
func (s *Supervisor) Handle(ctx context.Context, state *orchestrator.State) error {
	if state.Current != orchestrator.StageSupervisor {
		return nil
	}

	if state.PlanStatus == orchestrator.PlanNotAttempted || state.PlanStatus == "" {
		out, err := s.Plan(ctx, state.Inputs[s.firstStage()])
		if err != nil {
			return err
		}
		state.Plan = out.Plan
		state.PlanStatus = out.Status
		state.RetrievedContext = out.Context
	}

	state.Seed(s.stages.IDs())
	return nil
}

func (s *Supervisor) firstStage() orchestrator.StageID {
	if len(s.stages) == 0 {
		return ""
	}
	return s.stages[0].ID
}

type planStage struct {
	ID    string
	Title string
}

func (s *Supervisor) prompt(retrieved, request string) (string, error) {
	stages := make([]planStage, len(s.stages))
	for i, d := range s.stages {
		stages[i] = planStage{ID: d.ID.String(), Title: d.Title}
	}

	var b strings.Builder
	err := s.tmpl.Execute(&b, map[string]any{
		"Context": retrieved,
		"Request": request,
		"Stages":  stages,
	})
	if err != nil {
		return "", fmt.Errorf("planner: render prompt: %w", err)
	}
	return b.String(), nil
}
