package export

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/dusk-indust/transmute/internal/artifact"
	"github.com/dusk-indust/transmute/internal/orchestrator"
)

// Report is the JSON export of one run.
type Report struct {
	RunID      string                  `json:"runId"`
	Service    string                  `json:"service"`
	Package    string                  `json:"package"`
	ExportedAt string                  `json:"exportedAt"`
	PlanStatus orchestrator.PlanStatus `json:"planStatus"`
	Plan       orchestrator.Plan       `json:"plan,omitempty"`
	Stages     []StageReport           `json:"stages"`
}

// StageReport describes one stage of a run.
type StageReport struct {
	ID        orchestrator.StageID `json:"id"`
	Title     string               `json:"title"`
	Status    string               `json:"status"`
	Plan      string               `json:"plan,omitempty"`
	Artifacts []string             `json:"artifacts,omitempty"`

	// Missing lists expected files the stage did not produce.
	Missing []string `json:"missing,omitempty"`
}

// Stage statuses in a Report.
const (
	StatusComplete = "complete"
	StatusPending  = "pending"
)

// BuildReport summarises res against the catalog.
func BuildReport(res *orchestrator.Result, stages orchestrator.Catalog, now time.Time) *Report {
	r := &Report{
		RunID:      res.RunID,
		Service:    res.Params.ServiceName,
		Package:    res.Params.Package(),
		ExportedAt: now.UTC().Format(time.RFC3339),
		PlanStatus: res.PlanStatus,
		Plan:       res.Plan,
	}

	for _, d := range stages {
		sr := StageReport{
			ID:     d.ID,
			Title:  d.Title,
			Status: StatusPending,
			Plan:   res.Plan[d.ID],
		}
		if out, ok := res.Outputs[d.ID]; ok {
			sr.Status = StatusComplete
			sr.Artifacts = artifact.Parse(out).Paths()
			for _, f := range d.ExpectedFiles(res.Params) {
				if !slices.Contains(sr.Artifacts, f) {
					sr.Missing = append(sr.Missing, f)
				}
			}
		}
		r.Stages = append(r.Stages, sr)
	}
	return r
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("export: encode report: %w", err)
	}
	return nil
}
