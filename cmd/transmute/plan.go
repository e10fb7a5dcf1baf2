package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dusk-indust/transmute/internal/intake"
	"github.com/dusk-indust/transmute/internal/orchestrator"
	"github.com/dusk-indust/transmute/internal/planner"
)

// Run asks the supervisor for a plan.
func (c *PlanCmd) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(ctx, g)
	if err != nil {
		return err
	}
	defer a.close()

	request := strings.Join(c.Request, " ")
	if c.Flows {
		files, err := intake.Read(ctx, c.Request...)
		if err != nil {
			return err
		}
		request = intake.Compose(files, intake.Preferences{})
	}

	out, err := a.svc.Plan(ctx, request)
	if err != nil {
		return err
	}
	printPlan(os.Stdout, a.pipeline.Stages().IDs(), out, c.Raw)
	return nil
}

func printPlan(w io.Writer, order []orchestrator.StageID, out *planner.Outcome, raw bool) {
	fmt.Fprintf(w, "Plan: %s\n", out.Status)
	for _, id := range order {
		desc, ok := out.Plan[id]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %-10s %s\n", id, desc)
	}
	if raw {
		fmt.Fprintln(w)
		fmt.Fprintln(w, dimStyle.Render(out.Raw))
	}
}
