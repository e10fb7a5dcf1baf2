//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/transmute/internal/export"
	"github.com/dusk-indust/transmute/internal/intake"
	"github.com/dusk-indust/transmute/internal/oracle"
	"github.com/dusk-indust/transmute/internal/orchestrator"
	"github.com/dusk-indust/transmute/internal/planner"
	"github.com/dusk-indust/transmute/internal/retrieval"
	"github.com/dusk-indust/transmute/internal/service"
	"github.com/dusk-indust/transmute/internal/status"
)

func testdataDir(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

// runFixture runs every stage over testdata/flows with a dry-run oracle and
// a lexical index over testdata/docs. It returns the bundle directory.
func runFixture(t *testing.T, outputDir string) (*service.Outcome, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	docs, err := retrieval.Build(ctx, testdataDir("docs"), retrieval.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { docs.Close() })
	require.Positive(t, docs.Len(), "docs fixture should index at least one passage")

	files, err := intake.Read(ctx, testdataDir("flows"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	stages := orchestrator.DefaultStages()
	o := oracle.Echo{Path: "notes.md"}
	sup := planner.NewSupervisor(stages, docs, o, planner.Options{})
	pipeline := orchestrator.NewPipeline(orchestrator.Config{Stages: stages}, docs, o,
		orchestrator.WithSupervisor(sup))

	// Drain progress events in the background so the pipeline does not block.
	progressCh := pipeline.Progress()
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for range progressCh {
		}
	}()

	svc := service.New(pipeline, stages, sup, docs, service.Config{OutputDir: outputDir, Zip: true})
	req := orchestrator.Request{
		Inputs: map[orchestrator.StageID]string{
			orchestrator.StageAnalyze: intake.Compose(files, intake.Preferences{Granularity: "Medium"}),
		},
		Params: orchestrator.Params{ServiceName: "Order Service", BasePackage: "com.acme"},
	}

	out, err := svc.Run(ctx, req)
	require.NoError(t, err)

	pipeline.Close()
	<-drainDone

	return out, out.Dir
}

// TestPipeline_E2E_DryRun runs the whole transformation and checks the
// bundle layout on disk.
func TestPipeline_E2E_DryRun(t *testing.T) {
	outputDir := t.TempDir()
	out, dir := runFixture(t, outputDir)

	assert.Equal(t, filepath.Join(outputDir, "order-service"), dir)
	assert.Equal(t, orchestrator.StageTerminal, out.Result.Current)

	stages := orchestrator.DefaultStages()
	for _, d := range stages {
		t.Run(string(d.ID), func(t *testing.T) {
			resp, err := os.ReadFile(export.ResponsePath(dir, d.ID))
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(resp), "### notes.md\n"))

			_, err = os.Stat(filepath.Join(export.StageDir(dir, d.ID), "notes.md"))
			assert.NoError(t, err)
		})
	}

	// The analyze prompt carries the flow files.
	analyze, err := os.ReadFile(export.ResponsePath(dir, orchestrator.StageAnalyze))
	require.NoError(t, err)
	assert.Contains(t, string(analyze), "OrderIntake")
	assert.Contains(t, string(analyze), "Granularity=Medium")

	_, err = os.Stat(filepath.Join(dir, service.ZipName))
	assert.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, service.ReportName))
	require.NoError(t, err)
	var report export.Report
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, "Order Service", report.Service)
	assert.Equal(t, "com.acme.orderservice", report.Package)
	require.Len(t, report.Stages, len(stages))
	for _, sr := range report.Stages {
		assert.Equal(t, export.StatusComplete, sr.Status, sr.ID)
		assert.Contains(t, sr.Artifacts, "notes.md")
	}

	st := status.Scan(dir, stages)
	assert.True(t, st.Done())
	assert.Equal(t, orchestrator.StageTerminal, st.Next)
}

// TestPipeline_E2E_Resume reruns a single stage against a finished bundle
// and checks that the other stages are left alone.
func TestPipeline_E2E_Resume(t *testing.T) {
	outputDir := t.TempDir()
	_, dir := runFixture(t, outputDir)

	before, err := os.ReadFile(export.ResponsePath(dir, orchestrator.StageAnalyze))
	require.NoError(t, err)

	stages := orchestrator.DefaultStages()
	pipeline := orchestrator.NewPipeline(orchestrator.Config{Stages: stages}, nil, oracle.Echo{Path: "design.md", Head: 40})
	go func() {
		for range pipeline.Progress() {
		}
	}()
	t.Cleanup(pipeline.Close)

	svc := service.New(pipeline, stages, nil, nil, service.Config{OutputDir: outputDir})
	out, err := svc.RunStage(context.Background(), orchestrator.Request{
		Params: orchestrator.Params{ServiceName: "Order Service", BasePackage: "com.acme"},
	}, orchestrator.StageDesign)
	require.NoError(t, err)
	assert.Equal(t, dir, out.Dir)

	_, err = os.Stat(filepath.Join(export.StageDir(dir, orchestrator.StageDesign), "design.md"))
	assert.NoError(t, err)

	after, err := os.ReadFile(export.ResponsePath(dir, orchestrator.StageAnalyze))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}
