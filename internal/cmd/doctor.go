package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"phpmdlens/internal/environment"
	"phpmdlens/internal/tool/phpmd"
)

// NewDoctorCommand creates and returns the doctor subcommand
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the DDEV environment and the phpmd configuration",
		Long: `Check that the workspace is a DDEV project, that the project is running
and that phpmd is installed in the web container. Also reports config
problems such as misspelled ruleset names.

Exit code: 0 if phpmd can run, 1 otherwise`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd)
		},
	}

	return cmd
}

func runDoctor(cmd *cobra.Command) error {
	a, err := newApp(cmd, "")
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	cfg := a.store.Current()

	fmt.Fprintf(out, "%s %s\n", color.New(color.Bold).Sprint("Workspace:"), a.workspace)
	if project, err := environment.ReadProject(afero.NewOsFs(), a.workspace); err == nil {
		fmt.Fprintf(out, "  DDEV project %s (%s, PHP %s)\n", project.Name, project.Type, project.PHPVersion)
	}

	fmt.Fprintln(out, color.New(color.Bold).Sprint("Configuration:"))
	for _, line := range cfg.Summary() {
		fmt.Fprintf(out, "  • %s\n", line)
	}
	for _, w := range cfg.Warnings {
		printCheck(out, false, w, "")
	}
	if cfg.CustomConfigPath == "" {
		for _, issue := range phpmd.SuggestRulesets(cfg.Rulesets) {
			hint := ""
			if issue.Suggestion != "" {
				hint = fmt.Sprintf("did you mean %q?", issue.Suggestion)
			}
			printCheck(out, false, fmt.Sprintf("unknown ruleset %q", issue.Name), hint)
		}
	}

	fmt.Fprintln(out, color.New(color.Bold).Sprint("Environment:"))
	res := a.service.Validate(cmd.Context())
	if !res.Valid {
		printCheck(out, false, res.Message, res.Detail)
		return fmt.Errorf("environment not ready: %s", res.Kind)
	}

	printCheck(out, true, fmt.Sprintf("DDEV project %s is running and %s is installed", res.Project, a.tool.Name()), "")
	if !cfg.Enabled {
		fmt.Fprintln(out, color.YellowString("phpmd is disabled. Run 'phpmdlens enable' to turn it on."))
	}
	return nil
}

func printCheck(w io.Writer, ok bool, message, detail string) {
	if ok {
		fmt.Fprintf(w, "  %s %s\n", color.GreenString("✓"), message)
	} else {
		fmt.Fprintf(w, "  %s %s\n", color.YellowString("✗"), message)
	}
	if detail != "" {
		fmt.Fprintf(w, "    %s\n", color.New(color.FgHiBlack).Sprint(detail))
	}
}
