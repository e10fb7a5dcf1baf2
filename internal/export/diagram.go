package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/transmute/internal/orchestrator"
)

// DiagramOptions controls workflow diagram rendering.
type DiagramOptions struct {
	// Current is highlighted, typically State.Current of a run.
	Current orchestrator.StageID

	// Supervisor adds the supervisor as the first node.
	Supervisor bool

	// Dependencies draws dotted edges for declared dependencies that are not
	// already implied by execution order.
	Dependencies bool
}

type diagramNode struct {
	id    orchestrator.StageID
	label string
}

func diagramNodes(stages orchestrator.Catalog, opts DiagramOptions) []diagramNode {
	var nodes []diagramNode
	if opts.Supervisor {
		nodes = append(nodes, diagramNode{id: orchestrator.StageSupervisor, label: "Supervisor"})
	}
	for _, d := range stages {
		label := d.Title
		if label == "" {
			label = d.ID.String()
		}
		nodes = append(nodes, diagramNode{id: d.ID, label: label})
	}
	return nodes
}

// extraDeps returns dependency edges other than the immediate predecessor.
func extraDeps(stages orchestrator.Catalog) [][2]orchestrator.StageID {
	var edges [][2]orchestrator.StageID
	for i, d := range stages {
		for _, dep := range d.DependsOn {
			if i > 0 && stages[i-1].ID == dep {
				continue
			}
			edges = append(edges, [2]orchestrator.StageID{dep, d.ID})
		}
	}
	return edges
}

// Mermaid renders the workflow as a Mermaid flowchart.
func Mermaid(stages orchestrator.Catalog, opts DiagramOptions) string {
	nodes := diagramNodes(stages, opts)

	var sb strings.Builder
	sb.WriteString("graph LR\n")
	for _, n := range nodes {
		fmt.Fprintf(&sb, "  %s[\"%s\"]\n", mermaidID(n.id), n.label)
	}
	for i := 0; i+1 < len(nodes); i++ {
		fmt.Fprintf(&sb, "  %s --> %s\n", mermaidID(nodes[i].id), mermaidID(nodes[i+1].id))
	}
	if opts.Dependencies {
		for _, e := range extraDeps(stages) {
			fmt.Fprintf(&sb, "  %s -.-> %s\n", mermaidID(e[0]), mermaidID(e[1]))
		}
	}
	if opts.Current != "" && !opts.Current.IsTerminal() {
		sb.WriteString("  classDef current fill:#9f9,stroke:#333\n")
		fmt.Fprintf(&sb, "  class %s current\n", mermaidID(opts.Current))
	}
	return sb.String()
}

// DOT renders the workflow as a Graphviz digraph. The current stage is
// filled green, every other stage light blue.
func DOT(stages orchestrator.Catalog, opts DiagramOptions) string {
	nodes := diagramNodes(stages, opts)

	var sb strings.Builder
	sb.WriteString("digraph G {\nrankdir=LR;\n")
	for _, n := range nodes {
		fill := "lightblue"
		if n.id == opts.Current {
			fill = "green"
		}
		fmt.Fprintf(&sb, "%q [label=%q, shape=box, style=filled, fillcolor=%s];\n", n.id, n.label, fill)
	}
	for i := 0; i+1 < len(nodes); i++ {
		fmt.Fprintf(&sb, "%q -> %q;\n", nodes[i].id, nodes[i+1].id)
	}
	if opts.Dependencies {
		for _, e := range extraDeps(stages) {
			fmt.Fprintf(&sb, "%q -> %q [style=dotted];\n", e[0], e[1])
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

// mermaidID keeps node IDs alphanumeric.
func mermaidID(id orchestrator.StageID) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return '_'
	}, id.String())
}
