package main

import (
	"fmt"

	"github.com/aretw0/formtree/internal/cli"
	"github.com/aretw0/formtree/internal/presentation/graph"
	"github.com/aretw0/formtree/internal/presentation/outline"
	"github.com/aretw0/formtree/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show the tree of a form document",
	Long: `Loads a form and prints its tree.

Formats:
- outline (default): markdown bullets with property values, styled on a terminal.
- mermaid: a Mermaid flowchart; skipped nodes are highlighted.
- json: the document as it would be saved after migration.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		hidden, _ := cmd.Flags().GetBool("hidden")
		ids, _ := cmd.Flags().GetBool("ids")

		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		path := args[0]
		out := cmd.OutOrStdout()

		switch format {
		case "mermaid":
			// The raw document is drawn so nodes the catalog rejects still appear.
			doc, err := cli.ReadForm(path)
			if err != nil {
				return err
			}
			ed := env.NewEditor(cli.FormName(path))
			report := ed.Deserialize(doc)

			overlay := &graph.Overlay{}
			for _, s := range report.Skipped {
				overlay.Skipped = append(overlay.Skipped, s.Path)
			}
			for _, d := range report.Diagnostics {
				overlay.Warnings = append(overlay.Warnings, d.Path)
			}
			fmt.Fprint(out, graph.GenerateMermaid(doc.Form, overlay))

		case "json":
			ed, _, err := env.OpenForm(path)
			if err != nil {
				return err
			}
			data, err := ed.Encode()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))

		case "outline", "":
			ed, report, err := env.OpenForm(path)
			if err != nil {
				return err
			}
			md, err := outline.Markdown(ed, outline.Options{
				Title:  ed.Name,
				Hidden: hidden,
				IDs:    ids,
			})
			if err != nil {
				return err
			}
			for _, s := range report.Skipped {
				md += fmt.Sprintf("\n> skipped %s: %v\n", s.Path, s.Err)
			}

			render := tui.NewRenderer(out)
			rendered, err := render(md)
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)

		default:
			return fmt.Errorf("unknown format %q: use outline, mermaid or json", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringP("format", "f", "outline", "Output format: outline, mermaid or json")
	inspectCmd.Flags().Bool("hidden", false, "Include properties hidden by their enabledOn condition (outline)")
	inspectCmd.Flags().Bool("ids", false, "Show runtime node ids (outline)")
}
