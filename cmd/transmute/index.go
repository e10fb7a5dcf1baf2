package main

import (
	"context"
	"fmt"
	"os"
)

// Run builds the index and prints the context retrieved for the query.
func (c *IndexCmd) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(ctx, g)
	if err != nil {
		return err
	}
	defer a.close()

	idx, err := a.docs.Get(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Indexed %d passages from %s (%s backend)\n", idx.Len(), a.cfg.Retrieval.DocsDir, a.cfg.Retrieval.Backend)

	if c.Query == "" {
		return nil
	}
	k := c.K
	if k <= 0 {
		k = a.cfg.Retrieval.K
	}
	text, err := idx.Query(ctx, c.Query, k)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, text)
	return nil
}
