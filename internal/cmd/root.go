// Package cmd implements the phpmdlens command line.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for phpmdlens
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phpmdlens",
		Short: "PHP Mess Detector diagnostics for DDEV projects",
		Long: `phpmdlens runs PHP Mess Detector inside the DDEV web container of a
project and reports its findings as per-line diagnostics.

Before each run it checks that the directory is a DDEV project, that the
project is running and that phpmd is installed in the container.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints the returned error
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("workspace", "w", "", "Project directory (defaults to the DDEV project containing the current directory)")
	cmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn or error (overrides the config file)")

	cmd.AddCommand(NewAnalyzeCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewDoctorCommand())
	cmd.AddCommand(NewEnableCommand())
	cmd.AddCommand(NewDisableCommand())
	cmd.AddCommand(NewToggleCommand())
	cmd.AddCommand(NewInitCommand())

	return cmd
}
