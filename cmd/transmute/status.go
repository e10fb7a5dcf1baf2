package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/dusk-indust/transmute/internal/orchestrator"
	"github.com/dusk-indust/transmute/internal/service"
	"github.com/dusk-indust/transmute/internal/status"
)

// Run prints the status of one bundle or of every bundle.
func (c *StatusCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	return runStatus(os.Stdout, cfg.OutputDir, c.Service)
}

func runStatus(w io.Writer, outputDir, name string) error {
	stages := orchestrator.DefaultStages()
	if name != "" {
		dir := service.BundleDirIn(outputDir, orchestrator.Params{ServiceName: name})
		bs := status.Scan(dir, stages)
		fmt.Fprintf(w, "Bundle: %s\n\n", bs.Name)
		printStageTable(w, bs)
		return nil
	}

	bundles, err := status.List(outputDir, stages)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if len(bundles) == 0 {
		fmt.Fprintln(w, "No bundles found.")
		fmt.Fprintln(w, "Run 'transmute run <flows>' to start a transformation.")
		return nil
	}

	for i, bs := range bundles {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Bundle: %s\n", bs.Name)
		printStageTable(w, bs)
	}
	return nil
}

func printStageTable(w io.Writer, bs status.BundleStatus) {
	for _, si := range bs.Stages {
		marker := "  "
		label := "pending"
		if si.Complete {
			label = "complete"
		}
		if si.ID == bs.Next {
			marker = "->"
			label = "next"
		}

		fmt.Fprintf(w, "  %s %-10s %-26s [%s]\n", marker, si.ID, si.Title, label)
	}

	if bs.Done() {
		fmt.Fprintln(w, "  All stages complete.")
	}
}
