package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// transmuteMCPEntry is the MCP server configuration for the transmute binary.
var transmuteMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "transmute",
  "args": ["mcp"]
}`)

// starterConfig is written as transmute.yml by init.
const starterConfig = `# transmute configuration. Every key is optional.
llm:
  provider: ollama          # echo, ollama, openai, azure, anthropic, gemini, a2a
  model: llama3.1
  base_url: http://localhost:11434
  temperature: 0.2
  max_retries: 2
  timeout: 5m

retrieval:
  docs_dir: webmethods_docs
  backend: lexical          # lexical, vector, pgvector
  k: 3

cache:
  memory: true
  ttl: 24h

params:
  service_name: default
  base_package: com.example

output_dir: out
`

// Run writes the starter config and MCP registration.
func (c *InitCmd) Run() error {
	return runInit(os.Stdout, c.Dir, c.Force)
}

// runInit writes transmute.yml and merges the transmute entry into
// .mcp.json in the target directory.
func runInit(w io.Writer, dir string, force bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving project dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}

	cfgPath := filepath.Join(abs, "transmute.yml")
	if _, err := os.Stat(cfgPath); err == nil && !force {
		fmt.Fprintf(w, "  skipped %s (exists, use --force to overwrite)\n", dotRelative(abs, cfgPath))
	} else {
		if err := os.WriteFile(cfgPath, []byte(starterConfig), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", cfgPath, err)
		}
		fmt.Fprintf(w, "  created %s\n", dotRelative(abs, cfgPath))
	}

	if err := mergeMCPConfig(w, filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nSetup complete. Put the webMethods documentation under webmethods_docs/ and run 'transmute index'.")
	return nil
}

// mergeMCPConfig creates or merges the transmute entry into .mcp.json.
func mergeMCPConfig(w io.Writer, mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["transmute"]; exists && !force {
		fmt.Fprintln(w, "  skipped .mcp.json transmute entry (exists, use --force to overwrite)")
		return nil
	}

	cfg.MCPServers["transmute"] = transmuteMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(w, "  %s .mcp.json with transmute MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
