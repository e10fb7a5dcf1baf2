package status

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/transmute/internal/export"
	"github.com/dusk-indust/transmute/internal/orchestrator"
)

func writeBundle(t *testing.T, dir string, outputs map[orchestrator.StageID]string) {
	t.Helper()
	_, err := export.WriteBundle(dir, orchestrator.DefaultStages(), outputs)
	require.NoError(t, err)
}

func TestScan_Empty(t *testing.T) {
	bs := Scan(t.TempDir(), orchestrator.DefaultStages())

	require.Len(t, bs.Stages, 7)
	assert.Equal(t, orchestrator.StageAnalyze, bs.Next)
	assert.False(t, bs.Done())
	for _, si := range bs.Stages {
		assert.False(t, si.Complete, si.ID)
		assert.Empty(t, si.Files, si.ID)
	}
}

func TestScan_Partial(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, map[orchestrator.StageID]string{
		orchestrator.StageAnalyze: "### microservices_suggestion.md\n# Orders",
		orchestrator.StageDesign:  "### architecture.md\n# Arch\n### diagrams/context.md\nctx",
	})

	bs := Scan(dir, orchestrator.DefaultStages())
	assert.Equal(t, filepath.Base(dir), bs.Name)
	assert.Equal(t, orchestrator.StageGenerate, bs.Next)

	assert.True(t, bs.Stages[0].Complete)
	assert.Equal(t, []string{"microservices_suggestion.md"}, bs.Stages[0].Files)
	assert.True(t, bs.Stages[1].Complete)
	assert.Equal(t, []string{"architecture.md", "diagrams/context.md"}, bs.Stages[1].Files)
	assert.False(t, bs.Stages[2].Complete)
}

func TestScan_ResponseWithoutArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, map[orchestrator.StageID]string{
		orchestrator.StageAnalyze: "no markers here",
	})

	bs := Scan(dir, orchestrator.DefaultStages())
	assert.True(t, bs.Stages[0].Complete)
	assert.Empty(t, bs.Stages[0].Files)
	assert.Equal(t, orchestrator.StageDesign, bs.Next)
}

func TestScan_NextIsFirstGap(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, map[orchestrator.StageID]string{
		orchestrator.StageAnalyze:  "### a.md\na",
		orchestrator.StageGenerate: "### pom.xml\n<project/>",
	})

	bs := Scan(dir, orchestrator.DefaultStages())
	assert.Equal(t, orchestrator.StageDesign, bs.Next)
	assert.True(t, bs.Stages[2].Complete)
}

func TestScan_AllComplete(t *testing.T) {
	dir := t.TempDir()
	outputs := map[orchestrator.StageID]string{}
	for _, id := range orchestrator.DefaultStages().IDs() {
		outputs[id] = "### " + id.String() + ".md\ndone"
	}
	writeBundle(t, dir, outputs)

	bs := Scan(dir, orchestrator.DefaultStages())
	assert.True(t, bs.Done())
	assert.Equal(t, orchestrator.StageTerminal, bs.Next)
}

func TestList(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, filepath.Join(root, "payments"), map[orchestrator.StageID]string{
		orchestrator.StageAnalyze: "### a.md\nA",
	})
	writeBundle(t, filepath.Join(root, "orders"), map[orchestrator.StageID]string{})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "orders", export.TransformationDir), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "unrelated"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	got, err := List(root, orchestrator.DefaultStages())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "orders", got[0].Name)
	assert.Equal(t, orchestrator.StageAnalyze, got[0].Next)
	assert.Equal(t, "payments", got[1].Name)
	assert.Equal(t, orchestrator.StageDesign, got[1].Next)
}

func TestList_MissingRoot(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "nope"), orchestrator.DefaultStages())
	require.Error(t, err)
}
