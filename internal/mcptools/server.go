package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewTransmuteMCPServer creates an MCP server with the transmute tools
// registered.
func NewTransmuteMCPServer(svc *TransmuteService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "transmute",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_pipeline",
		Description: "Run the full webMethods to Spring Boot pipeline for a service. Returns the plan and the artifacts of every stage.",
	}, svc.RunPipeline)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_stage",
		Description: "Run a single stage, reusing the service's earlier stage outputs. Returns the artifacts and files written.",
	}, svc.RunStage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "plan",
		Description: "Ask the supervisor for an advisory per-stage plan without running any stage.",
	}, svc.Plan)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_artifacts",
		Description: "Split a generation response into files using its '### <path>' markers.",
	}, svc.ParseArtifacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_docs",
		Description: "Retrieve the webMethods documentation passages most relevant to a query.",
	}, svc.QueryDocs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_stages",
		Description: "List the pipeline stages in execution order with their dependencies and expected files.",
	}, svc.ListStages)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_status",
		Description: "Get the status of a service bundle: which stages are complete and what stage is next.",
	}, svc.GetStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_bundles",
		Description: "List all service bundles in the output directory, showing completion status for each.",
	}, svc.ListBundles)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
