package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/transmute/internal/artifact"
	"github.com/dusk-indust/transmute/internal/config"
	"github.com/dusk-indust/transmute/internal/export"
	"github.com/dusk-indust/transmute/internal/orchestrator"
	"github.com/dusk-indust/transmute/internal/planner"
)

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, runInit(&out, dir, false))
	assert.Contains(t, out.String(), "created ./transmute.yml")
	assert.Contains(t, out.String(), "created .mcp.json")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.True(t, cfg.Cache.Memory)

	data, err := os.ReadFile(filepath.Join(dir, ".mcp.json"))
	require.NoError(t, err)
	var mc mcpConfig
	require.NoError(t, json.Unmarshal(data, &mc))
	assert.Contains(t, mc.MCPServers, "transmute")

	out.Reset()
	require.NoError(t, runInit(&out, dir, false))
	assert.Contains(t, out.String(), "skipped ./transmute.yml")
	assert.Contains(t, out.String(), "skipped .mcp.json transmute entry")
}

func TestMergeMCPConfig_KeepsOtherServers(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".mcp.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"mcpServers":{"other":{"command":"other"}}}`), 0o644))

	var out bytes.Buffer
	require.NoError(t, mergeMCPConfig(&out, p, false))
	assert.Contains(t, out.String(), "updated .mcp.json")

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	var mc mcpConfig
	require.NoError(t, json.Unmarshal(data, &mc))
	assert.Contains(t, mc.MCPServers, "other")
	assert.Contains(t, mc.MCPServers, "transmute")
}

func TestRunStatus(t *testing.T) {
	out := t.TempDir()
	var buf bytes.Buffer

	require.NoError(t, runStatus(&buf, out, ""))
	assert.Contains(t, buf.String(), "No bundles found.")

	_, err := export.WriteBundle(filepath.Join(out, "orders"), orchestrator.DefaultStages(), map[orchestrator.StageID]string{
		orchestrator.StageAnalyze: "### microservices_suggestion.md\n# Orders",
	})
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, runStatus(&buf, out, "orders"))
	assert.Contains(t, buf.String(), "Bundle: orders")
	assert.Contains(t, buf.String(), "     analyze    Analyzer                   [complete]")
	assert.Contains(t, buf.String(), "  -> design     Designer                   [next]")
	assert.Contains(t, buf.String(), "     howto      HowTo Writer               [pending]")
	assert.NotContains(t, buf.String(), "All stages complete.")

	buf.Reset()
	require.NoError(t, runStatus(&buf, out, ""))
	assert.Contains(t, buf.String(), "Bundle: orders")
}

func TestRunStatus_MissingOutputDir(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runStatus(&buf, filepath.Join(t.TempDir(), "none"), ""))
	assert.Contains(t, buf.String(), "No bundles found.")
}

func TestRunDiagram(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runDiagram(&buf, "mermaid", export.DiagramOptions{Current: orchestrator.StageGenerate}))
	assert.Contains(t, buf.String(), "class generate current")

	buf.Reset()
	require.NoError(t, runDiagram(&buf, "dot", export.DiagramOptions{}))
	assert.Contains(t, buf.String(), "digraph G {")

	require.Error(t, runDiagram(&buf, "svg", export.DiagramOptions{}))
}

func TestWriteArtifacts(t *testing.T) {
	set := artifact.Parse("### pom.xml\n<project/>\n### ../evil.sh\nrm -rf /\n")

	var buf bytes.Buffer
	require.NoError(t, writeArtifacts(&buf, set, ""))
	assert.Contains(t, buf.String(), "  pom.xml (10 bytes)")

	dir := t.TempDir()
	buf.Reset()
	require.NoError(t, writeArtifacts(&buf, set, dir))
	assert.Contains(t, buf.String(), "skipped ../evil.sh (unsafe path)")

	data, err := os.ReadFile(filepath.Join(dir, "pom.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<project/>", string(data))

	buf.Reset()
	require.NoError(t, writeArtifacts(&buf, artifact.NewSet(), dir))
	assert.Equal(t, "No artifacts found.\n", buf.String())
}

func TestPrintPlan(t *testing.T) {
	var buf bytes.Buffer
	printPlan(&buf, orchestrator.DefaultStages().IDs(), &planner.Outcome{
		Status: orchestrator.PlanSalvaged,
		Plan: orchestrator.Plan{
			orchestrator.StageDesign:  "draw the services",
			orchestrator.StageAnalyze: "read the flows",
		},
	}, false)

	assert.Equal(t, "Plan: salvaged\n  analyze    read the flows\n  design     draw the services\n", buf.String())
}
