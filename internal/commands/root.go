// Package commands implements the nekolators command line.
package commands

import (
	"github.com/spf13/cobra"
)

// Version is set via ldflags during build.
var Version = "dev"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "nekolators",
		Short:   "Split bills fairly, with shared discounts and fees",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "nekolators.yaml", "config file; environment variables are used when it does not exist")

	rootCmd.AddCommand(newServeCommand(&configPath))
	rootCmd.AddCommand(newSplitCommand())

	return rootCmd
}
