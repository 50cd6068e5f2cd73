package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"phpmdlens/internal/report"
)

// NewStatusCommand creates and returns the status subcommand
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [file.php]",
		Short: "Show the phpmd status indicator",
		Long: `Show the status indicator: disabled, unavailable, clean or has issues.

With a file argument the file is analyzed first so the indicator reflects
its diagnostics.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = absPath(args[0])
			}
			return runStatus(cmd, file)
		},
	}

	return cmd
}

func runStatus(cmd *cobra.Command, file string) error {
	a, err := newApp(cmd, file)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.store.Current()
	if cfg.Enabled {
		if file != "" {
			if _, err := a.service.Analyze(cmd.Context(), file); err != nil {
				a.logger.LogDebug(fmt.Sprintf("analysis for status failed: %v", err))
			}
		} else if cfg.ValidateEnvironment {
			a.service.Validate(cmd.Context())
		}
	}

	out := cmd.OutOrStdout()
	for _, line := range cfg.Summary() {
		fmt.Fprintf(out, "  • %s\n", line)
	}
	fmt.Fprintln(out)
	report.PrintStatus(out, a.service.Indicator(file))

	return nil
}
