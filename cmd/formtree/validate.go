package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Check form documents against the catalog",
	Long: `Loads every form and reports nodes with an unknown control type, stored values
that do not fit their property, and required properties left empty.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			ed, report, err := env.OpenForm(path)
			if err != nil {
				return err
			}

			var problems []string
			for _, s := range report.Skipped {
				problems = append(problems, fmt.Sprintf("%s: %v", s.Path, s.Err))
			}
			for _, d := range report.Diagnostics {
				problems = append(problems, d.String())
			}
			if err := ed.Validate(); err != nil {
				problems = append(problems, err.Error())
			}
			if report.Migrated() {
				fmt.Fprintf(out, "%s: %d node(s) use legacy field names, run 'formtree migrate -w'\n", path, len(report.Migrations))
			}

			if len(problems) == 0 {
				fmt.Fprintf(out, "%s: ok (%d nodes)\n", path, report.Loaded)
				continue
			}
			failed++
			fmt.Fprintf(out, "%s:\n", path)
			for _, p := range problems {
				fmt.Fprintf(out, "  - %s\n", p)
			}
		}

		if failed > 0 {
			return fmt.Errorf("validation failed for %d of %d form(s)", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
