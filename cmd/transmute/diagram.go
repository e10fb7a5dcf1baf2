package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dusk-indust/transmute/internal/export"
	"github.com/dusk-indust/transmute/internal/orchestrator"
	"github.com/dusk-indust/transmute/internal/service"
	"github.com/dusk-indust/transmute/internal/status"
)

// Run prints the workflow diagram.
func (c *DiagramCmd) Run(g *Globals) error {
	opts := export.DiagramOptions{
		Current:      orchestrator.StageID(c.Current),
		Supervisor:   !c.NoSupervisor,
		Dependencies: c.Dependencies,
	}
	if c.Service != "" && opts.Current == "" {
		cfg, err := loadConfig(g)
		if err != nil {
			return err
		}
		dir := service.BundleDirIn(cfg.OutputDir, orchestrator.Params{ServiceName: c.Service})
		opts.Current = status.Scan(dir, orchestrator.DefaultStages()).Next
	}
	return runDiagram(os.Stdout, c.Format, opts)
}

func runDiagram(w io.Writer, format string, opts export.DiagramOptions) error {
	stages := orchestrator.DefaultStages()
	switch format {
	case "", "mermaid":
		_, err := io.WriteString(w, export.Mermaid(stages, opts))
		return err
	case "dot":
		_, err := io.WriteString(w, export.DOT(stages, opts))
		return err
	default:
		return fmt.Errorf("unknown diagram format %q (want mermaid or dot)", format)
	}
}
