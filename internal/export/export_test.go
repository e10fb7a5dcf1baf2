package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/transmute/internal/orchestrator"
)

func sampleOutputs() map[orchestrator.StageID]string {
	return map[orchestrator.StageID]string{
		orchestrator.StageAnalyze: "Intro text\n### microservices_suggestion.md\n# Orders\n",
		orchestrator.StageGenerate: strings.Join([]string{
			"### pom.xml",
			"<project/>",
			"### src/main/java/com/example/orders/controller/OrdersController.java",
			"class OrdersController {}",
			"### ../../etc/passwd",
			"root",
		}, "\n"),
	}
}

func TestSafePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "pom.xml", want: "pom.xml", ok: true},
		{in: "`src/main/App.java`", want: "src/main/App.java", ok: true},
		{in: "a/./b/../c.txt", want: "a/c.txt", ok: true},
		{in: "dir\\file.md", want: "dir/file.md", ok: true},
		{in: "../escape.md", ok: false},
		{in: "a/../../escape.md", ok: false},
		{in: "/etc/passwd", ok: false},
		{in: "", ok: false},
		{in: ".", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := SafePath(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteBundle(t *testing.T) {
	root := t.TempDir()
	cat := orchestrator.DefaultStages()

	res, err := WriteBundle(root, cat, sampleOutputs())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "transformation", "analyze", "microservices_suggestion.md"),
		filepath.Join(root, "transformation", "generate", "pom.xml"),
		filepath.Join(root, "transformation", "generate", "src", "main", "java", "com", "example", "orders", "controller", "OrdersController.java"),
	}, res.Files)
	assert.Equal(t, []string{"generate: ../../etc/passwd"}, res.Skipped)

	data, err := os.ReadFile(res.Files[0])
	require.NoError(t, err)
	assert.Equal(t, "# Orders", string(data))

	raw, err := os.ReadFile(ResponsePath(root, orchestrator.StageAnalyze))
	require.NoError(t, err)
	assert.Equal(t, sampleOutputs()[orchestrator.StageAnalyze], string(raw))

	outputs, err := LoadOutputs(root, cat)
	require.NoError(t, err)
	assert.Equal(t, sampleOutputs(), outputs)
}

func TestLoadOutputs_EmptyDir(t *testing.T) {
	outputs, err := LoadOutputs(t.TempDir(), orchestrator.DefaultStages())
	require.NoError(t, err)
	assert.Empty(t, outputs)
}

func TestWriteZip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteZip(&buf, orchestrator.DefaultStages(), sampleOutputs()))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	contents := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		contents[f.Name] = string(b)
	}

	names := make([]string, 0, len(contents))
	for n := range contents {
		names = append(names, n)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		"transformation/analyze/microservices_suggestion.md",
		"transformation/generate/pom.xml",
		"transformation/generate/src/main/java/com/example/orders/controller/OrdersController.java",
	}, names)
	assert.Equal(t, "<project/>", contents["transformation/generate/pom.xml"])
}

func TestWriteZipFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "bundle.zip")
	require.NoError(t, WriteZipFile(p, orchestrator.DefaultStages(), sampleOutputs()))

	zr, err := zip.OpenReader(p)
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 3)
}

func TestMermaid(t *testing.T) {
	cat := orchestrator.DefaultStages()[:3]

	got := Mermaid(cat, DiagramOptions{Current: orchestrator.StageDesign, Supervisor: true})
	assert.Equal(t, `graph LR
  supervisor["Supervisor"]
  analyze["Analyzer"]
  design["Designer"]
  generate["Generator"]
  supervisor --> analyze
  analyze --> design
  design --> generate
  classDef current fill:#9f9,stroke:#333
  class design current
`, got)

	got = Mermaid(cat, DiagramOptions{Current: orchestrator.StageTerminal})
	assert.NotContains(t, got, "classDef")
	assert.NotContains(t, got, "supervisor")
}

func TestMermaid_Dependencies(t *testing.T) {
	got := Mermaid(orchestrator.DefaultStages(), DiagramOptions{Dependencies: true})

	// test and migrate depend on generate, which is not their predecessor.
	assert.Contains(t, got, "  generate -.-> test\n")
	assert.Contains(t, got, "  generate -.-> migrate\n")
	assert.Contains(t, got, "  analyze -.-> howto\n")
	assert.NotContains(t, got, "  migrate -.-> howto\n")
	assert.NotContains(t, got, "  analyze -.-> design\n")
}

func TestDOT(t *testing.T) {
	cat := orchestrator.DefaultStages()[:2]
	got := DOT(cat, DiagramOptions{Current: orchestrator.StageAnalyze, Supervisor: true})

	assert.Equal(t, `digraph G {
rankdir=LR;
"supervisor" [label="Supervisor", shape=box, style=filled, fillcolor=lightblue];
"analyze" [label="Analyzer", shape=box, style=filled, fillcolor=green];
"design" [label="Designer", shape=box, style=filled, fillcolor=lightblue];
"supervisor" -> "analyze";
"analyze" -> "design";
}
`, got)
}

func TestBuildReport(t *testing.T) {
	res := &orchestrator.Result{
		RunID:      "run-1",
		Outputs:    sampleOutputs(),
		Plan:       orchestrator.Plan{orchestrator.StageAnalyze: "read the flows"},
		PlanStatus: orchestrator.PlanSalvaged,
		Params:     orchestrator.Params{ServiceName: "orders", BasePackage: "com.example"},
	}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	r := BuildReport(res, orchestrator.DefaultStages(), now)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, "orders", r.Service)
	assert.Equal(t, "com.example.orders", r.Package)
	assert.Equal(t, "2025-03-01T12:00:00Z", r.ExportedAt)
	require.Len(t, r.Stages, 7)

	analyze := r.Stages[0]
	assert.Equal(t, StatusComplete, analyze.Status)
	assert.Equal(t, "read the flows", analyze.Plan)
	assert.Equal(t, []string{"microservices_suggestion.md"}, analyze.Artifacts)
	assert.Empty(t, analyze.Missing)

	assert.Equal(t, StatusPending, r.Stages[1].Status)

	gen := r.Stages[2]
	assert.Equal(t, StatusComplete, gen.Status)
	assert.Contains(t, gen.Missing, "src/main/resources/application.yml")
	assert.NotContains(t, gen.Missing, "pom.xml")

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "salvaged", decoded["planStatus"])
}
