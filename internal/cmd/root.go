package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for fathom
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fathom",
		Short: "Concurrent directory tree walker",
		Long: `Fathom walks directory trees concurrently and reports every file and
directory it finds, following symbolic link chains to their final target.

Broken links are reported separately, and filesystem errors are collected
instead of stopping the walk. Results can be filtered by attribute, written
as text, JSON, YAML, Markdown or HTML, and recorded in a local history.`,
		Version: Version,
		// main prints the error; silence cobra's copy and the usage text
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewFindCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
