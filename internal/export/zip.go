package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/dusk-indust/transmute/internal/artifact"
	"github.com/dusk-indust/transmute/internal/orchestrator"
)

// WriteZip writes every stage's artifacts to w as a zip archive laid out as
// transformation/<stage>/<path>. Unsafe paths are left out.
func WriteZip(w io.Writer, stages orchestrator.Catalog, outputs map[orchestrator.StageID]string) error {
	zw := zip.NewWriter(w)
	for _, id := range stages.IDs() {
		out, ok := outputs[id]
		if !ok {
			continue
		}
		for _, a := range artifact.Parse(out).Artifacts() {
			rel, ok := SafePath(a.Path)
			if !ok {
				continue
			}
			name := path.Join(TransformationDir, id.String(), rel)
			f, err := zw.Create(name)
			if err != nil {
				return fmt.Errorf("export: zip %s: %w", name, err)
			}
			if _, err := io.WriteString(f, a.Content); err != nil {
				return fmt.Errorf("export: zip %s: %w", name, err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("export: close zip: %w", err)
	}
	return nil
}

// WriteZipFile is WriteZip to a file, creating parent directories.
func WriteZipFile(p string, stages orchestrator.Catalog, outputs map[orchestrator.StageID]string) (err error) {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("export: mkdir %s: %w", filepath.Dir(p), err)
	}
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", p, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("export: close %s: %w", p, cerr)
		}
	}()
	return WriteZip(f, stages, outputs)
}
