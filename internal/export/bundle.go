// Package export writes run outputs to disk: the per-stage artifact bundle,
// a zip of the same layout, workflow diagrams and a JSON run report.
package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/transmute/internal/artifact"
	"github.com/dusk-indust/transmute/internal/orchestrator"
)

// Bundle layout, relative to the output directory.
const (
	// TransformationDir holds one directory of artifacts per stage.
	TransformationDir = "transformation"

	// ResponsesDir holds the raw oracle response per stage.
	ResponsesDir = "responses"
)

// StageDir returns the artifact directory of a stage.
func StageDir(root string, id orchestrator.StageID) string {
	return filepath.Join(root, TransformationDir, id.String())
}

// ResponsePath returns the raw response file of a stage.
func ResponsePath(root string, id orchestrator.StageID) string {
	return filepath.Join(root, ResponsesDir, id.String()+".md")
}

// WriteResult lists what WriteBundle wrote.
type WriteResult struct {
	Files   []string `json:"files"`
	Skipped []string `json:"skipped,omitempty"`
}

// SafePath cleans an artifact path and reports whether it stays inside its
// stage directory.
func SafePath(p string) (string, bool) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	p = strings.Trim(p, "`")
	clean := path.Clean(p)
	if clean == "." || !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", false
	}
	return clean, true
}

// WriteBundle writes every stage output under root, in catalog order:
// the raw response to responses/<stage>.md and each parsed artifact to
// transformation/<stage>/<path>. Unsafe artifact paths are skipped.
func WriteBundle(root string, stages orchestrator.Catalog, outputs map[orchestrator.StageID]string) (*WriteResult, error) {
	res := &WriteResult{}
	for _, id := range stages.IDs() {
		out, ok := outputs[id]
		if !ok {
			continue
		}

		if err := writeFile(ResponsePath(root, id), out); err != nil {
			return nil, err
		}

		for _, a := range artifact.Parse(out).Artifacts() {
			rel, ok := SafePath(a.Path)
			if !ok {
				res.Skipped = append(res.Skipped, id.String()+": "+a.Path)
				continue
			}
			p := filepath.Join(StageDir(root, id), filepath.FromSlash(rel))
			if err := writeFile(p, a.Content); err != nil {
				return nil, err
			}
			res.Files = append(res.Files, p)
		}
	}
	return res, nil
}

// LoadOutputs reads the raw responses saved by WriteBundle. Stages without a
// response file are absent from the result.
func LoadOutputs(root string, stages orchestrator.Catalog) (map[orchestrator.StageID]string, error) {
	outputs := make(map[orchestrator.StageID]string)
	for _, id := range stages.IDs() {
		data, err := os.ReadFile(ResponsePath(root, id))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("export: read %s response: %w", id, err)
		}
		outputs[id] = string(data)
	}
	return outputs, nil
}

// writeFile writes content to the given path, creating directories as
// needed.
func writeFile(p, content string) error {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: mkdir %s: %w", dir, err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", p, err)
	}
	return nil
}
