package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/formtree/pkg/domain"
)

// Overlay marks nodes of the diagram by document path, as reported by a load
// ("form[0].children[2]").
type Overlay struct {
	Skipped  []string
	Warnings []string
	Selected string
}

// GenerateMermaid produces a Mermaid flowchart of a form array.
// It applies semantic styling:
// - Form root: ((Circle))
// - Container: [[Subroutine]]
// - Leaf: ("Rounded")
// Edges go from a container to its children in render order.
func GenerateMermaid(form []domain.RawNode, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    form((\"form\"))\n")

	var visit func(nodes []domain.RawNode, parentID, path string)
	visit = func(nodes []domain.RawNode, parentID, path string) {
		for i, n := range nodes {
			p := fmt.Sprintf("%s[%d]", path, i)
			id := sanitizeMermaidID(p)

			children, isContainer := n.Children()
			opener, closer := "(", ")"
			if isContainer {
				opener, closer = "[[", "]]"
			}
			fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label(n), closer)
			fmt.Fprintf(&sb, "    %s --> %s\n", parentID, id)

			if isContainer {
				visit(children, id, p+".children")
			}
		}
	}
	visit(form, "form", "form")

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef skipped fill:#ffcdd2,stroke:#b71c1c,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef warning fill:#fff9c4,stroke:#f9a825,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef selected fill:#e1f5fe,stroke:#01579b,stroke-width:4px,color:#000;\n")

		styled := make(map[string]bool)
		apply := func(paths []string, class string) {
			for _, p := range paths {
				id := sanitizeMermaidID(p)
				if id == "" || styled[id] {
					continue
				}
				styled[id] = true
				fmt.Fprintf(&sb, "    class %s %s;\n", id, class)
			}
		}
		apply(overlay.Skipped, "skipped")
		apply(overlay.Warnings, "warning")
		if overlay.Selected != "" {
			fmt.Fprintf(&sb, "    class %s selected;\n", sanitizeMermaidID(overlay.Selected))
		}
	}

	return sb.String()
}

func label(n domain.RawNode) string {
	text := n.ControlID()
	if l, ok := n["label"].(string); ok && l != "" {
		text = fmt.Sprintf("%s: %s", text, l)
	}
	// Escape double quotes for Mermaid labels
	return strings.ReplaceAll(text, "\"", "'")
}

func sanitizeMermaidID(path string) string {
	r := strings.NewReplacer(".", "_", "[", "_", "]", "", "-", "_", "/", "_")
	return r.Replace(path)
}
