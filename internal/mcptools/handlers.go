package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/transmute/internal/artifact"
	"github.com/dusk-indust/transmute/internal/export"
	"github.com/dusk-indust/transmute/internal/orchestrator"
	"github.com/dusk-indust/transmute/internal/service"
	"github.com/dusk-indust/transmute/internal/status"
)

// TransmuteService handles MCP tool calls for the stdio server mode. It wraps
// a service.Service to run stages and query bundles.
type TransmuteService struct {
	svc *service.Service
}

// NewTransmuteService creates a TransmuteService backed by svc.
func NewTransmuteService(svc *service.Service) *TransmuteService {
	return &TransmuteService{svc: svc}
}

// RunPipeline runs the whole pipeline. Stage failures are reported in the
// output rather than as tool errors.
func (s *TransmuteService) RunPipeline(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunPipelineInput,
) (*mcp.CallToolResult, RunPipelineOutput, error) {
	inputs := make(map[orchestrator.StageID]string, len(input.Inputs)+1)
	for id, text := range input.Inputs {
		inputs[orchestrator.StageID(id)] = text
	}
	if input.Flows != "" {
		inputs[orchestrator.StageAnalyze] = input.Flows
	}

	out, err := s.svc.Run(ctx, orchestrator.Request{
		Inputs: inputs,
		Entry:  orchestrator.StageID(input.Entry),
		Params: orchestrator.Params{ServiceName: input.ServiceName, BasePackage: input.BasePackage},
	})
	if err != nil {
		return nil, RunPipelineOutput{Status: "failed", Message: err.Error()}, nil
	}

	res := RunPipelineOutput{
		RunID:      out.Result.RunID,
		Status:     "completed",
		PlanStatus: string(out.Result.PlanStatus),
		Plan:       planMap(out.Result.Plan),
		Dir:        out.Dir,
	}
	for _, sr := range out.Report.Stages {
		if sr.Status != export.StatusComplete {
			continue
		}
		res.Stages = append(res.Stages, StageArtifacts{
			ID:        sr.ID.String(),
			Artifacts: nonNil(sr.Artifacts),
			Missing:   sr.Missing,
		})
	}
	if out.Written != nil {
		res.Skipped = out.Written.Skipped
	}
	return nil, res, nil
}

// RunStage runs one stage, reusing earlier outputs of the same service.
func (s *TransmuteService) RunStage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunStageInput,
) (*mcp.CallToolResult, RunStageOutput, error) {
	stage := orchestrator.StageID(input.Stage)
	if !s.svc.Stages().Has(stage) {
		return nil, RunStageOutput{
			Stage:   input.Stage,
			Status:  "failed",
			Message: fmt.Sprintf("unknown stage %q (want one of %v)", input.Stage, s.svc.Stages().IDs()),
		}, fmt.Errorf("invalid stage: %q", input.Stage)
	}

	req := orchestrator.Request{
		Params: orchestrator.Params{ServiceName: input.ServiceName, BasePackage: input.BasePackage},
	}
	if input.Input != "" {
		req.Inputs = map[orchestrator.StageID]string{stage: input.Input}
	}

	out, err := s.svc.RunStage(ctx, req, stage)
	if err != nil {
		return nil, RunStageOutput{
			Stage:   input.Stage,
			Status:  "failed",
			Message: err.Error(),
		}, nil
	}

	res := RunStageOutput{
		Stage:     input.Stage,
		Status:    "completed",
		Artifacts: artifact.Parse(out.Result.Outputs[stage]).Paths(),
	}
	if out.Written != nil {
		res.FilesWritten = out.Written.Files
	}
	return nil, res, nil
}

// Plan asks the supervisor for an advisory plan.
func (s *TransmuteService) Plan(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PlanInput,
) (*mcp.CallToolResult, PlanOutput, error) {
	outcome, err := s.svc.Plan(ctx, input.Request)
	if err != nil {
		return nil, PlanOutput{}, err
	}
	return nil, PlanOutput{Status: string(outcome.Status), Plan: planMap(outcome.Plan)}, nil
}

// ParseArtifacts splits a response into its declared files.
func (s *TransmuteService) ParseArtifacts(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ParseArtifactsInput,
) (*mcp.CallToolResult, ParseArtifactsOutput, error) {
	out := ParseArtifactsOutput{Artifacts: []Artifact{}}
	for _, a := range artifact.Parse(input.Response).Artifacts() {
		out.Artifacts = append(out.Artifacts, Artifact{Path: a.Path, Content: a.Content})
	}
	return nil, out, nil
}

// QueryDocs returns the documentation context for a query.
func (s *TransmuteService) QueryDocs(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryDocsInput,
) (*mcp.CallToolResult, QueryDocsOutput, error) {
	text, err := s.svc.QueryDocs(ctx, input.Query, input.K)
	if err != nil {
		return nil, QueryDocsOutput{}, err
	}
	return nil, QueryDocsOutput{Context: text}, nil
}

// ListStages describes the declared stages in execution order.
func (s *TransmuteService) ListStages(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListStagesInput,
) (*mcp.CallToolResult, ListStagesOutput, error) {
	out := ListStagesOutput{Stages: []StageSummary{}}
	for _, d := range s.svc.Stages() {
		sum := StageSummary{ID: d.ID.String(), Title: d.Title, Files: d.Files}
		for _, dep := range d.DependsOn {
			sum.DependsOn = append(sum.DependsOn, dep.String())
		}
		out.Stages = append(out.Stages, sum)
	}
	return nil, out, nil
}

// GetStatus reports which stages of a service's bundle are complete.
func (s *TransmuteService) GetStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetStatusInput,
) (*mcp.CallToolResult, GetStatusOutput, error) {
	bs := s.svc.Status(orchestrator.Params{ServiceName: input.ServiceName})
	return nil, statusOutput(bs), nil
}

// ListBundles reports every bundle in the output directory.
func (s *TransmuteService) ListBundles(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListBundlesInput,
) (*mcp.CallToolResult, ListBundlesOutput, error) {
	bundles, err := s.svc.List()
	if err != nil {
		return nil, ListBundlesOutput{}, err
	}
	out := ListBundlesOutput{Bundles: []GetStatusOutput{}}
	for _, bs := range bundles {
		out.Bundles = append(out.Bundles, statusOutput(bs))
	}
	return nil, out, nil
}

func statusOutput(bs status.BundleStatus) GetStatusOutput {
	out := GetStatusOutput{
		Name:      bs.Name,
		Completed: []string{},
		Next:      bs.Next.String(),
		Done:      bs.Done(),
	}
	for _, si := range bs.Stages {
		if si.Complete {
			out.Completed = append(out.Completed, si.ID.String())
		}
	}
	return out
}

func planMap(p orchestrator.Plan) map[string]string {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]string, len(p))
	for id, desc := range p {
		out[id.String()] = desc
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
