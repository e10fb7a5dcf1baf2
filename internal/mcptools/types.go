package mcptools

// --- MCP tool types for the stdio server mode (transmute mcp) ---
// These let an MCP client drive a transformation with structured tools
// instead of shelling out to the CLI.

// RunPipelineInput is the input for the run_pipeline MCP tool.
type RunPipelineInput struct {
	ServiceName string            `json:"serviceName,omitempty" jsonschema:"microservice name (default: default)"`
	BasePackage string            `json:"basePackage,omitempty" jsonschema:"base Java package (default: com.example)"`
	Flows       string            `json:"flows,omitempty" jsonschema:"webMethods flow content for the analyze stage"`
	Inputs      map[string]string `json:"inputs,omitempty" jsonschema:"extra input text keyed by stage id"`
	Entry       string            `json:"entry,omitempty" jsonschema:"first stage to run (default: supervisor)"`
}

// RunPipelineOutput is the result of the run_pipeline MCP tool.
type RunPipelineOutput struct {
	RunID      string            `json:"runId,omitempty"`
	Status     string            `json:"status"` // "completed" or "failed"
	Message    string            `json:"message,omitempty"`
	PlanStatus string            `json:"planStatus,omitempty"`
	Plan       map[string]string `json:"plan,omitempty"`
	Stages     []StageArtifacts  `json:"stages,omitempty"`
	Dir        string            `json:"dir,omitempty"`
	Skipped    []string          `json:"skipped,omitempty"`
}

// StageArtifacts lists the artifacts one stage produced.
type StageArtifacts struct {
	ID        string   `json:"id"`
	Artifacts []string `json:"artifacts"`
	Missing   []string `json:"missing,omitempty"`
}

// RunStageInput is the input for the run_stage MCP tool.
type RunStageInput struct {
	Stage       string `json:"stage" jsonschema:"stage id to run, e.g. analyze or generate"`
	ServiceName string `json:"serviceName,omitempty" jsonschema:"microservice name whose earlier outputs are reused"`
	BasePackage string `json:"basePackage,omitempty" jsonschema:"base Java package"`
	Input       string `json:"input,omitempty" jsonschema:"input text for the stage"`
}

// RunStageOutput is the result of the run_stage MCP tool.
type RunStageOutput struct {
	Stage        string   `json:"stage"`
	Status       string   `json:"status"` // "completed" or "failed"
	Message      string   `json:"message,omitempty"`
	Artifacts    []string `json:"artifacts,omitempty"`
	FilesWritten []string `json:"filesWritten,omitempty"`
}

// PlanInput is the input for the plan MCP tool.
type PlanInput struct {
	Request string `json:"request" jsonschema:"the transformation request to plan for"`
}

// PlanOutput is the result of the plan MCP tool.
type PlanOutput struct {
	Status string            `json:"status"`
	Plan   map[string]string `json:"plan,omitempty"`
}

// ParseArtifactsInput is the input for the parse_artifacts MCP tool.
type ParseArtifactsInput struct {
	Response string `json:"response" jsonschema:"a generation response with ### <path> markers"`
}

// ParseArtifactsOutput is the result of the parse_artifacts MCP tool.
type ParseArtifactsOutput struct {
	Artifacts []Artifact `json:"artifacts"`
}

// Artifact is one parsed file.
type Artifact struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// QueryDocsInput is the input for the query_docs MCP tool.
type QueryDocsInput struct {
	Query string `json:"query" jsonschema:"text to search the documentation for"`
	K     int    `json:"k,omitempty" jsonschema:"number of passages (default 3)"`
}

// QueryDocsOutput is the result of the query_docs MCP tool.
type QueryDocsOutput struct {
	Context string `json:"context"`
}

// ListStagesInput is the input for the list_stages MCP tool.
type ListStagesInput struct{}

// ListStagesOutput is the result of the list_stages MCP tool.
type ListStagesOutput struct {
	Stages []StageSummary `json:"stages"`
}

// StageSummary describes one declared stage.
type StageSummary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	DependsOn []string `json:"dependsOn,omitempty"`
	Files     []string `json:"files,omitempty"`
}

// GetStatusInput is the input for the get_status MCP tool.
type GetStatusInput struct {
	ServiceName string `json:"serviceName,omitempty" jsonschema:"microservice name (default: default)"`
}

// GetStatusOutput is the result of the get_status MCP tool.
type GetStatusOutput struct {
	Name      string   `json:"name"`
	Completed []string `json:"completed"`
	Next      string   `json:"next"`
	Done      bool     `json:"done"`
}

// ListBundlesInput is the input for the list_bundles MCP tool.
type ListBundlesInput struct{}

// ListBundlesOutput is the result of the list_bundles MCP tool.
type ListBundlesOutput struct {
	Bundles []GetStatusOutput `json:"bundles"`
}
