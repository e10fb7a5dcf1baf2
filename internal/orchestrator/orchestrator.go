// Package orchestrator drives one transformation run: a fixed, ordered set of
// generation stages threaded through a single mutable State.
//
// A Router dispatches the handler registered for State.Current until Current
// reaches StageTerminal. Each handler checks that it is the current stage,
// does its work and advances the queue.
package orchestrator

import "context"

// StageID names a pipeline stage.
type StageID string

// Stage identifiers of the default catalog.
const (
	StageSupervisor StageID = "supervisor"
	StageAnalyze    StageID = "analyze"
	StageDesign     StageID = "design"
	StageGenerate   StageID = "generate"
	StageIntegrate  StageID = "integrate"
	StageTest       StageID = "test"
	StageMigrate    StageID = "migrate"
	StageHowTo      StageID = "howto"

	// StageTerminal is the value of State.Current once the queue is
	// exhausted. It is never a declared stage.
	StageTerminal StageID = "end"
)

func (s StageID) String() string {
	return string(s)
}

// IsTerminal reports whether s is the terminal sentinel.
func (s StageID) IsTerminal() bool {
	return s == StageTerminal
}

// Request is the input to one run.
type Request struct {
	// Inputs holds the caller's raw text per stage. Missing stages get "".
	Inputs map[StageID]string `json:"inputs,omitempty"`

	// Entry is the first stage to run. Empty means the supervisor when one
	// is registered, otherwise the first declared stage.
	Entry StageID `json:"entry,omitempty"`

	Params Params `json:"params"`

	// Prior pre-seeds outputs from an earlier run, so that later stages can
	// see upstream results when entering mid-pipeline.
	Prior map[StageID]string `json:"prior,omitempty"`
}

// Result is the final state of a successful run.
type Result struct {
	RunID            string             `json:"run_id"`
	Outputs          map[StageID]string `json:"outputs"`
	Plan             Plan               `json:"plan,omitempty"`
	PlanStatus       PlanStatus         `json:"plan_status"`
	Current          StageID            `json:"current"`
	Queue            []StageID          `json:"queue"`
	RetrievedContext string             `json:"retrieved_context,omitempty"`
	Params           Params             `json:"params"`
}

// ProgressEvent is emitted to the user during pipeline execution.
type ProgressEvent struct {
	RunID   string
	Stage   StageID
	Section string
	Status  ProgressStatus
	Message string
}

// ProgressStatus is the state of a stage within a run.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// Orchestrator coordinates a transformation run.
type Orchestrator interface {
	// Run drives a fresh State from req.Entry to the terminal stage.
	Run(ctx context.Context, req Request) (*Result, error)

	// RunStage runs exactly one declared stage.
	RunStage(ctx context.Context, req Request, stage StageID) (*Result, error)

	// Progress returns a channel that emits progress events.
	Progress() <-chan ProgressEvent
}
