package main

import (
	"fmt"
	"os"

	"github.com/aretw0/formtree/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "formtree",
	Short: "formtree edits, migrates and serves visual form documents",
	Long: `formtree is the model behind a visual form designer. It loads form documents
against a catalog of controls, upgrades legacy field names and exposes editing
over HTTP and MCP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", "", "Directory of control definitions (default: built-in palette)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./formtree.yaml if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every editor event")
}

// setup builds the command environment from the global flags.
func setup(cmd *cobra.Command) (*cli.Env, error) {
	flags := cmd.Flags()
	dir, _ := flags.GetString("dir")
	cfgPath, _ := flags.GetString("config")
	level, _ := flags.GetString("log-level")
	debug, _ := flags.GetBool("debug")

	return cli.Setup(cmd.Context(), cli.Options{
		ConfigPath: cfgPath,
		CatalogDir: dir,
		LogLevel:   level,
		Debug:      debug,
	})
}
