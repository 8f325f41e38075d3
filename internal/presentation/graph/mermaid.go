package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/graph"
)

// GraphOverlay contains dynamic run data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromState marks every node recorded in the run history as visited
// and the last executed node as current.
func OverlayFromState(s domain.State) *GraphOverlay {
	return &GraphOverlay{
		VisitedNodes: append([]string(nil), s.History...),
		CurrentNode:  s.CurrentNode,
	}
}

// GenerateMermaid produces a Mermaid flowchart from a graph description.
// It applies semantic styling:
// - Entry: ((Circle))
// - Tool executors (names ending in "Tools"): [[Subroutine]]
// - Routing nodes (with conditional successors): {Rhombus}
// - Default: [Rectangle]
// Conditional transitions are dotted; the terminal is drawn as a stop circle.
func GenerateMermaid(desc graph.Description, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	routing := make(map[string]bool)
	for _, e := range desc.Edges {
		if e.Conditional {
			routing[e.From] = true
		}
	}

	for _, name := range desc.Nodes {
		opener, closer := "[", "]"
		switch {
		case name == desc.Entry:
			opener, closer = "((", "))"
		case strings.HasSuffix(name, "Tools"):
			opener, closer = "[[", "]]"
		case routing[name]:
			opener, closer = "{", "}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(name), opener, escapeLabel(name), closer)
	}

	terminal := false
	for _, e := range desc.Edges {
		to := sanitizeMermaidID(e.To)
		if e.To == graph.Terminal {
			to = "END"
			terminal = true
		}
		arrow := "-->"
		if e.Conditional {
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.From), arrow, to)
	}
	if terminal {
		sb.WriteString("    END(((\"end\")))\n")
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps labels readable on either theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || seen[safeID] {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
