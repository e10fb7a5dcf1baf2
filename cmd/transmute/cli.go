package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Run     RunCmd     `cmd:"" help:"Run the pipeline from an entry stage and write the bundle"`
	Stage   StageCmd   `cmd:"" help:"Run a single stage, reusing earlier outputs"`
	Plan    PlanCmd    `cmd:"" help:"Ask the supervisor for a plan without running any stage"`
	Index   IndexCmd   `cmd:"" help:"Build the documentation index and optionally query it"`
	Parse   ParseCmd   `cmd:"" help:"Split a response file into its artifacts"`
	Status  StatusCmd  `cmd:"" help:"Show which stages have outputs on disk"`
	Diagram DiagramCmd `cmd:"" help:"Render the workflow as Mermaid or DOT"`
	Serve   ServeCmd   `cmd:"" help:"Serve the HTTP API"`
	MCP     MCPCmd     `cmd:"" name:"mcp" help:"Run as an MCP server on stdio"`
	Init    InitCmd    `cmd:"" help:"Write a starter config and register the MCP server"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// Globals are flags shared by every command.
type Globals struct {
	ConfigDir string `short:"C" default:"." help:"Directory holding transmute.yml and .env" type:"path"`
	Provider  string `help:"Override llm.provider"`
	Model     string `help:"Override llm.model"`
	OutputDir string `short:"o" help:"Override output_dir" type:"path"`
	DocsDir   string `help:"Override retrieval.docs_dir" type:"path"`
	Verbose   int    `short:"v" type:"counter" help:"Verbosity level (-v, -vv)"`
}

// RunCmd runs the full pipeline.
type RunCmd struct {
	Flows       []string          `arg:"" optional:"" help:"Flow files or directories (.xml, .html, .txt)"`
	Service     string            `short:"s" help:"Microservice name"`
	Package     string            `short:"p" help:"Base Java package"`
	Entry       string            `short:"e" help:"First stage to run (default: supervisor)"`
	Input       map[string]string `short:"i" help:"Extra stage input stage=text (repeatable)"`
	Granularity string            `help:"Analysis granularity hint (Coarse, Fine, Balanced)"`
	Focus       []string          `help:"Analysis focus areas (repeatable)"`
	Zip         bool              `help:"Also write transformation.zip"`
	Quiet       bool              `short:"q" help:"Hide stage progress"`
}

// StageCmd runs one stage.
type StageCmd struct {
	Stage   string `arg:"" help:"Stage id (analyze, design, generate, integrate, test, migrate, howto)"`
	Service string `short:"s" help:"Microservice name"`
	Package string `short:"p" help:"Base Java package"`
	Input   string `short:"i" help:"Input text for the stage"`
	Quiet   bool   `short:"q" help:"Hide stage progress"`
}

// PlanCmd asks the supervisor for a plan.
type PlanCmd struct {
	Request []string `arg:"" optional:"" help:"Request text, or flow files with --flows"`
	Flows   bool     `help:"Treat arguments as flow files"`
	Raw     bool     `help:"Print the raw supervisor response"`
}

// IndexCmd builds and queries the documentation index.
type IndexCmd struct {
	Query string `arg:"" optional:"" help:"Text to search for"`
	K     int    `short:"k" help:"Number of passages"`
}

// ParseCmd splits a response into artifacts.
type ParseCmd struct {
	File string `arg:"" help:"Response file (- for stdin)"`
	Out  string `help:"Write the artifacts under this directory" type:"path"`
}

// StatusCmd reports bundle progress.
type StatusCmd struct {
	Service string `arg:"" optional:"" help:"Microservice name (default: all bundles)"`
}

// DiagramCmd renders the workflow.
type DiagramCmd struct {
	Format       string `short:"f" enum:"mermaid,dot" default:"mermaid" help:"Output format (mermaid, dot)"`
	Service      string `short:"s" help:"Highlight the next stage of this bundle"`
	Current      string `help:"Stage to highlight"`
	Dependencies bool   `short:"d" help:"Draw dependency edges"`
	NoSupervisor bool   `help:"Leave out the supervisor node"`
}

// ServeCmd serves the HTTP API.
type ServeCmd struct {
	Addr string `help:"Listen address (overrides server.addr)"`
}

// MCPCmd serves MCP on stdio.
type MCPCmd struct{}

// InitCmd writes a starter config and .mcp.json entry.
type InitCmd struct {
	Dir   string `arg:"" optional:"" default:"." help:"Project directory" type:"path"`
	Force bool   `help:"Overwrite existing files"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
