package main

import (
	"context"

	"github.com/dusk-indust/transmute/internal/mcptools"
)

// Run serves the MCP tools on stdio until stdin closes.
func (c *MCPCmd) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(ctx, g)
	if err != nil {
		return err
	}
	defer a.close()

	server := mcptools.NewTransmuteMCPServer(mcptools.NewTransmuteService(a.svc))
	return mcptools.RunStdio(ctx, server)
}
