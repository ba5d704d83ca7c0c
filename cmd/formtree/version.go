package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/formtree"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of formtree",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "formtree version %s\n", strings.TrimSpace(formtree.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
