//go:build e2e

package e2e

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/transmute/internal/export"
	"github.com/dusk-indust/transmute/internal/orchestrator"
)

var update = flag.Bool("update", false, "update golden files")

// goldenDir returns the path to the testdata/golden directory.
func goldenDir() string {
	return testdataDir("golden")
}

func goldenName(id orchestrator.StageID) string {
	return string(id) + "_response.md"
}

// TestGolden compares the raw stage responses against golden files. If a
// golden file does not exist, the subtest is skipped with a message to run
// with -update.
func TestGolden(t *testing.T) {
	_, dir := runFixture(t, t.TempDir())
	gDir := goldenDir()

	for _, d := range orchestrator.DefaultStages() {
		t.Run(goldenName(d.ID), func(t *testing.T) {
			goldenPath := filepath.Join(gDir, goldenName(d.ID))
			golden, err := os.ReadFile(goldenPath)
			if os.IsNotExist(err) {
				t.Skipf("golden file %s not found; run with -update to generate", goldenName(d.ID))
				return
			}
			require.NoError(t, err)

			actual, err := os.ReadFile(export.ResponsePath(dir, d.ID))
			require.NoError(t, err)

			assert.Equal(t, string(golden), string(actual),
				"response for %s does not match golden file", d.ID)
		})
	}
}

// TestUpdateGolden regenerates golden files from the current pipeline output.
// Run with: go test -tags e2e -run TestUpdateGolden ./internal/e2e/ -update
func TestUpdateGolden(t *testing.T) {
	if !*update {
		t.Skip("skipping golden file update; run with -update flag")
	}

	_, dir := runFixture(t, t.TempDir())
	gDir := goldenDir()
	require.NoError(t, os.MkdirAll(gDir, 0o755))

	for _, d := range orchestrator.DefaultStages() {
		data, err := os.ReadFile(export.ResponsePath(dir, d.ID))
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(gDir, goldenName(d.ID)), data, 0o644))
		t.Logf("updated %s", goldenName(d.ID))
	}
}
