// Package outline renders a form tree as a markdown outline.
package outline

import (
	"fmt"
	"strings"

	"github.com/aretw0/formtree/pkg/domain"
)

// Walker visits the nodes of a form depth-first in render order.
// *formtree.Editor implements it.
type Walker interface {
	Walk(fn func(n domain.Node, depth int) error) error
}

// Options tunes the outline.
type Options struct {
	Title string
	// Hidden includes properties whose enabledOn condition is not met.
	Hidden bool
	// IDs appends the runtime id of each node.
	IDs bool
}

// Markdown renders a nested bullet list, one item per node with its visible values.
func Markdown(w Walker, opts Options) (string, error) {
	var sb strings.Builder
	if opts.Title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", opts.Title)
	}

	count := 0
	err := w.Walk(func(n domain.Node, depth int) error {
		count++
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(&sb, "%s- **%s**", indent, n.ControlID)
		if n.GroupID != "" {
			fmt.Fprintf(&sb, " _(%s)_", n.GroupID)
		}
		if opts.IDs {
			fmt.Fprintf(&sb, " `%s`", n.ID)
		}
		sb.WriteString("\n")

		if n.IsContainer() {
			return nil
		}
		props := n.Properties.Visible()
		if opts.Hidden {
			props = nil
			for _, p := range n.Properties.Properties() {
				if p.Type() != domain.PropertyInfo {
					props = append(props, p)
				}
			}
		}
		for _, p := range props {
			fmt.Fprintf(&sb, "%s  - %s: %s", indent, p.Name, format(p.Value))
			if opts.Hidden && !domain.IsEnabled(p, n.Properties) {
				sb.WriteString(" _(hidden)_")
			}
			sb.WriteString("\n")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if count == 0 {
		sb.WriteString("_empty form_\n")
	}
	return sb.String(), nil
}

func format(v domain.Value) string {
	switch val := v.(type) {
	case domain.Text:
		if val == "" {
			return "_empty_"
		}
		return fmt.Sprintf("%q", string(val))
	case domain.Dropdown:
		return fmt.Sprintf("`%s` of %s", val.Selected, strings.Join(val.Choices, ", "))
	case domain.List:
		items := make([]string, len(val.Options))
		for i, o := range val.Options {
			items[i] = o.Value
			if o.Default {
				items[i] += " (default)"
			}
		}
		return strings.Join(items, ", ")
	}
	return fmt.Sprint(v.Raw())
}
