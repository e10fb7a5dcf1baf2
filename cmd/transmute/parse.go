package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dusk-indust/transmute/internal/artifact"
	"github.com/dusk-indust/transmute/internal/export"
)

// Run splits a response into artifacts, listing them or writing them out.
func (c *ParseCmd) Run() error {
	var (
		data []byte
		err  error
	)
	if c.File == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	return writeArtifacts(os.Stdout, artifact.Parse(string(data)), c.Out)
}

// writeArtifacts lists the artifacts of set and, when dir is set, writes
// each one below it. Unsafe paths are reported and skipped.
func writeArtifacts(w io.Writer, set *artifact.Set, dir string) error {
	if set.Len() == 0 {
		fmt.Fprintln(w, "No artifacts found.")
		return nil
	}
	for _, a := range set.Artifacts() {
		if dir == "" {
			fmt.Fprintf(w, "  %s (%d bytes)\n", a.Path, len(a.Content))
			continue
		}
		rel, ok := export.SafePath(a.Path)
		if !ok {
			fmt.Fprintf(w, "  skipped %s (unsafe path)\n", a.Path)
			continue
		}
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(a.Content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", p, err)
		}
		fmt.Fprintf(w, "  created %s\n", p)
	}
	return nil
}
