package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/formtree/internal/cli"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate FILE...",
	Short: "Upgrade legacy field names in form documents",
	Long: `Loads every form through the migration rules and writes back the current format.
Without --write the upgraded document is printed to stdout (single file only).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		write, _ := cmd.Flags().GetBool("write")
		if !write && len(args) > 1 {
			return errors.New("several files can only be migrated with --write")
		}

		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
		for _, path := range args {
			ed, report, err := env.OpenForm(path)
			if err != nil {
				return err
			}
			if len(report.Skipped) > 0 {
				return fmt.Errorf("%s: %d node(s) could not be loaded, refusing to rewrite", path, len(report.Skipped))
			}

			if !write {
				data, err := ed.Encode()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				continue
			}

			if !report.Migrated() {
				fmt.Fprintf(errOut, "%s: already current\n", path)
				continue
			}
			if err := cli.WriteForm(path, ed); err != nil {
				return err
			}
			for _, m := range report.Migrations {
				fmt.Fprintf(errOut, "%s: %s (%s)\n", path, m.ControlID, strings.Join(m.Rules, ", "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolP("write", "w", false, "Rewrite the files in place")
}
