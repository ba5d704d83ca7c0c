package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/formtree/internal/cli"
	"github.com/aretw0/formtree/internal/presentation/tui"
	"github.com/aretw0/formtree/pkg/ports"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the controls that can be placed on a form",
	Long: `Prints the control catalog: the built-in palette, or the definitions found in --dir.
With --watch the list is printed again every time a definition changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")

		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		out := cmd.OutOrStdout()
		if err := printCatalog(out, env.Catalog); err != nil {
			return err
		}
		if !watch {
			return nil
		}

		cat, ok := env.Catalog.(cli.Reloadable)
		if !ok {
			return fmt.Errorf("--watch needs a catalog directory (--dir)")
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		err = cli.WatchCatalog(ctx, cat, env.Logger, func() {
			if err := printCatalog(out, env.Catalog); err != nil {
				env.Logger.Error("Failed to print catalog", "err", err)
			}
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), ">>> Watching for changes...")
		<-ctx.Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().Bool("watch", false, "Reprint when definitions change")
}

func printCatalog(w io.Writer, cat ports.Catalog) error {
	var sb strings.Builder
	sb.WriteString("| Group | Control | Kind | Properties |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, def := range cat.List() {
		props := "-"
		if def.Properties != nil && def.Properties.Len() > 0 {
			props = strings.Join(def.Properties.Names(), ", ")
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", def.GroupID, def.ControlID, def.Kind(), props)
	}

	render := tui.NewRenderer(w)
	rendered, err := render(sb.String())
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, rendered)
	return err
}
