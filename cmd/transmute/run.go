package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dusk-indust/transmute/internal/export"
	"github.com/dusk-indust/transmute/internal/intake"
	"github.com/dusk-indust/transmute/internal/orchestrator"
	"github.com/dusk-indust/transmute/internal/service"
)

// Run executes the pipeline.
func (c *RunCmd) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(ctx, g)
	if err != nil {
		return err
	}
	defer a.close()

	inputs := make(map[orchestrator.StageID]string, len(c.Input)+1)
	for id, text := range c.Input {
		inputs[orchestrator.StageID(id)] = text
	}
	if len(c.Flows) > 0 {
		files, err := intake.Read(ctx, c.Flows...)
		if err != nil {
			return err
		}
		prefs := intake.Preferences{Granularity: c.Granularity, FocusAreas: c.Focus}
		inputs[orchestrator.StageAnalyze] = intake.Compose(files, prefs)
		a.log.Info("flows loaded", "files", len(files))
	}

	params := a.cfg.Params
	if c.Service != "" {
		params.ServiceName = c.Service
	}
	if c.Package != "" {
		params.BasePackage = c.Package
	}

	if c.Zip {
		a.svc = a.service(true)
	}

	wait := a.watchProgress(os.Stdout, c.Quiet)
	out, err := a.svc.Run(ctx, orchestrator.Request{
		Inputs: inputs,
		Entry:  orchestrator.StageID(c.Entry),
		Params: params,
	})
	wait()
	if err != nil {
		return err
	}

	printOutcome(os.Stdout, out)
	return nil
}

// Run executes one stage.
func (c *StageCmd) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(ctx, g)
	if err != nil {
		return err
	}
	defer a.close()

	stage := orchestrator.StageID(c.Stage)
	if !a.pipeline.Stages().Has(stage) {
		return fmt.Errorf("unknown stage %q (want one of %v)", c.Stage, a.pipeline.Stages().IDs())
	}

	params := a.cfg.Params
	if c.Service != "" {
		params.ServiceName = c.Service
	}
	if c.Package != "" {
		params.BasePackage = c.Package
	}
	req := orchestrator.Request{Params: params}
	if c.Input != "" {
		req.Inputs = map[orchestrator.StageID]string{stage: c.Input}
	}

	wait := a.watchProgress(os.Stdout, c.Quiet)
	out, err := a.svc.RunStage(ctx, req, stage)
	wait()
	if err != nil {
		return err
	}

	printOutcome(os.Stdout, out)
	return nil
}

// watchProgress prints pipeline progress until the returned function is
// called. The function closes the pipeline's progress channel.
func (a *app) watchProgress(w io.Writer, quiet bool) func() {
	if quiet {
		return a.pipeline.Close
	}
	done := make(chan struct{})
	go printProgress(w, a.pipeline.Progress(), done)
	return func() {
		a.pipeline.Close()
		<-done
	}
}

// printOutcome summarises a finished run.
func printOutcome(w io.Writer, out *service.Outcome) {
	res := out.Result
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Run %s (%s)", res.RunID, res.Params.Package())))
	if res.PlanStatus != orchestrator.PlanNotAttempted {
		fmt.Fprintf(w, "  plan: %s\n", res.PlanStatus)
	}
	for _, sr := range out.Report.Stages {
		if sr.Status != export.StatusComplete {
			continue
		}
		fmt.Fprintf(w, "  %-10s %d artifact(s)", sr.ID, len(sr.Artifacts))
		if len(sr.Missing) > 0 {
			fmt.Fprint(w, dimStyle.Render(fmt.Sprintf("  missing: %v", sr.Missing)))
		}
		fmt.Fprintln(w)
	}
	if out.Dir != "" {
		fmt.Fprintf(w, "\nBundle written to %s (%d files", out.Dir, len(out.Written.Files))
		if n := len(out.Written.Skipped); n > 0 {
			fmt.Fprintf(w, ", %d unsafe paths skipped", n)
		}
		fmt.Fprintln(w, ")")
	}
}
