// Package service is the application layer shared by the CLI, the HTTP API
// and the MCP server. It runs the pipeline, persists bundles and answers
// status and documentation queries.
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-logr/logr"

	"github.com/dusk-indust/transmute/internal/export"
	"github.com/dusk-indust/transmute/internal/orchestrator"
	"github.com/dusk-indust/transmute/internal/planner"
	"github.com/dusk-indust/transmute/internal/retrieval"
	"github.com/dusk-indust/transmute/internal/status"
)

// ZipName is the archive written next to each bundle.
const ZipName = "transformation.zip"

// ReportName is the JSON report written next to each bundle.
const ReportName = "report.json"

// ErrNoPlanner is returned by Plan when no planner is configured.
var ErrNoPlanner = errors.New("service: no planner configured")

// Planner produces an advisory plan for a request.
type Planner interface {
	Plan(ctx context.Context, request string) (*planner.Outcome, error)
}

// Service wraps an Orchestrator with bundle persistence.
type Service struct {
	pipeline orchestrator.Orchestrator
	stages   orchestrator.Catalog
	planner  Planner
	docs     retrieval.Retriever
	cfg      Config
	now      func() time.Time
}

// Config holds Service settings.
type Config struct {
	// OutputDir is where bundles are written, one directory per service.
	// Empty disables persistence.
	OutputDir string

	// Zip also writes a zip archive of each bundle.
	Zip bool

	Logger logr.Logger
}

// New creates a Service. planner and docs may be nil.
func New(pipeline orchestrator.Orchestrator, stages orchestrator.Catalog, p Planner, docs retrieval.Retriever, cfg Config) *Service {
	if docs == nil {
		docs = retrieval.Empty()
	}
	return &Service{
		pipeline: pipeline,
		stages:   stages,
		planner:  p,
		docs:     docs,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Outcome is a completed run plus what was written for it.
type Outcome struct {
	Result *orchestrator.Result `json:"result"`
	Report *export.Report       `json:"report"`

	// Dir is the bundle directory, empty when nothing was written.
	Dir     string              `json:"dir,omitempty"`
	Written *export.WriteResult `json:"written,omitempty"`
}

// Stages returns the worker catalog.
func (s *Service) Stages() orchestrator.Catalog {
	return s.stages
}

// Run executes the pipeline from req.Entry and persists the bundle.
func (s *Service) Run(ctx context.Context, req orchestrator.Request) (*Outcome, error) {
	res, err := s.pipeline.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.finish(res)
}

// RunStage executes a single stage. When req.Prior is empty the outputs of
// an earlier run are loaded from the service's bundle directory.
func (s *Service) RunStage(ctx context.Context, req orchestrator.Request, stage orchestrator.StageID) (*Outcome, error) {
	if len(req.Prior) == 0 && s.cfg.OutputDir != "" {
		prior, err := export.LoadOutputs(s.BundleDir(req.Params), s.stages)
		if err != nil {
			return nil, err
		}
		delete(prior, stage)
		req.Prior = prior
	}

	res, err := s.pipeline.RunStage(ctx, req, stage)
	if err != nil {
		return nil, err
	}
	return s.finish(res)
}

func (s *Service) finish(res *orchestrator.Result) (*Outcome, error) {
	out := &Outcome{
		Result: res,
		Report: export.BuildReport(res, s.stages, s.now()),
	}
	if s.cfg.OutputDir == "" {
		return out, nil
	}

	dir := s.BundleDir(res.Params)
	written, err := export.WriteBundle(dir, s.stages, res.Outputs)
	if err != nil {
		return nil, err
	}
	for _, skipped := range written.Skipped {
		s.cfg.Logger.Info("skipped unsafe artifact path", "artifact", skipped)
	}
	if s.cfg.Zip {
		if err := export.WriteZipFile(filepath.Join(dir, ZipName), s.stages, res.Outputs); err != nil {
			return nil, err
		}
	}
	if err := writeReport(filepath.Join(dir, ReportName), out.Report); err != nil {
		return nil, err
	}

	out.Dir = dir
	out.Written = written
	s.cfg.Logger.Info("bundle written", "dir", dir, "files", len(written.Files), "skipped", len(written.Skipped))
	return out, nil
}

// Plan asks the planner for a plan without running any stage.
func (s *Service) Plan(ctx context.Context, request string) (*planner.Outcome, error) {
	if s.planner == nil {
		return nil, ErrNoPlanner
	}
	return s.planner.Plan(ctx, request)
}

// QueryDocs returns the retrieved context for text.
func (s *Service) QueryDocs(ctx context.Context, text string, k int) (string, error) {
	return s.docs.Query(ctx, text, k)
}

// Status reports the bundle of the service named in p.
func (s *Service) Status(p orchestrator.Params) status.BundleStatus {
	return status.Scan(s.BundleDir(p), s.stages)
}

// List reports every bundle under the output directory. A missing output
// directory yields no bundles.
func (s *Service) List() ([]status.BundleStatus, error) {
	if s.cfg.OutputDir == "" {
		return nil, nil
	}
	bundles, err := status.List(s.cfg.OutputDir, s.stages)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service: list bundles: %w", err)
	}
	return bundles, nil
}

// Outputs returns the saved raw responses of the service named in p.
func (s *Service) Outputs(p orchestrator.Params) (map[orchestrator.StageID]string, error) {
	return export.LoadOutputs(s.BundleDir(p), s.stages)
}

// BundleDir is the output directory of the service named in p.
func (s *Service) BundleDir(p orchestrator.Params) string {
	return BundleDirIn(s.cfg.OutputDir, p)
}

// BundleDirIn is the bundle directory of the service named in p under
// outputDir.
func BundleDirIn(outputDir string, p orchestrator.Params) string {
	return filepath.Join(outputDir, BundleName(p))
}

// BundleName turns the service name into a directory name: lower case,
// with runs of other characters collapsed to "-".
func BundleName(p orchestrator.Params) string {
	p = p.WithDefaults()
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(p.ServiceName) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimRight(b.String(), "-")
	if name == "" {
		return orchestrator.DefaultServiceName
	}
	return name
}
