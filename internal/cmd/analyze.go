package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"phpmdlens/internal/analysis"
	"phpmdlens/internal/report"
	"phpmdlens/internal/scheduler"
)

// NewAnalyzeCommand creates and returns the analyze subcommand
func NewAnalyzeCommand() *cobra.Command {
	var (
		format    string
		exportDir string
		top       int
	)

	cmd := &cobra.Command{
		Use:   "analyze <file.php>",
		Short: "Run phpmd on one file and print its diagnostics",
		Long: `Run phpmd on one file inside the DDEV web container and print the
resulting diagnostics.

Output formats:
  text  colored listing with a rule summary (default)
  json  {"file": ..., "diagnostics": [...]}
  csv   one row per diagnostic

Exits non-zero when phpmd is disabled, the environment is not ready or the
phpmd output could not be read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], format, exportDir, top)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or csv")
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "Also write the diagnostics to a timestamped CSV file in this directory")
	cmd.Flags().IntVar(&top, "top", 10, "Number of rules to show in the summary")

	return cmd
}

func runAnalyze(cmd *cobra.Command, file, format, exportDir string, top int) error {
	switch format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("unknown format %q (want text, json or csv)", format)
	}

	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("cannot analyze %s: %w", file, err)
	}

	a, err := newApp(cmd, file)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()

	var run *analysis.Run
	sched := scheduler.New(a.store, func(ctx context.Context, doc string) error {
		r, err := a.service.Analyze(ctx, doc)
		run = r
		return err
	}, a.logger)
	defer sched.Stop()

	stop := startSpinner(cmd.ErrOrStderr(), format == "text", "Running phpmd in DDEV...")
	err = sched.Manual(cmd.Context(), absPath(file))
	stop()

	if err != nil {
		return describeAnalyzeError(cmd.ErrOrStderr(), err)
	}

	diagnostics := a.service.Publisher().Get(run.Document)
	doc := relativeTo(a.workspace, run.Document)

	switch format {
	case "json":
		err = report.WriteJSON(out, doc, diagnostics)
	case "csv":
		err = report.WriteCSV(out, doc, diagnostics)
	default:
		report.PrintDiagnostics(out, doc, diagnostics)
		if len(diagnostics) > 0 {
			fmt.Fprintln(out)
			report.PrintRuleSummary(out, report.GenerateRuleSummary(diagnostics), top)
		}
		fmt.Fprintln(out)
		report.PrintStatus(out, a.service.Indicator(run.Document))
		a.logger.LogDebug(fmt.Sprintf("run %s took %v", run.ID, run.Duration.Round(time.Millisecond)))
	}
	if err != nil {
		return err
	}

	if exportDir != "" {
		path, err := report.ExportCSV(exportDir, doc, diagnostics)
		if err != nil {
			return err
		}
		a.logger.LogInfo(fmt.Sprintf("diagnostics exported to %s", path))
	}

	return nil
}

// describeAnalyzeError prints a hint for the failure and returns the error
// for the exit status.
func describeAnalyzeError(w io.Writer, err error) error {
	var ve *analysis.ValidationError
	switch {
	case errors.Is(err, scheduler.ErrDisabled), errors.Is(err, analysis.ErrDisabled):
		fmt.Fprintln(w, color.YellowString("⚠ phpmd is disabled. Run 'phpmdlens enable' to turn it on."))
	case errors.As(err, &ve):
		fmt.Fprintln(w, color.YellowString("⚠ %s", ve.Result.Message))
		if ve.Result.Detail != "" {
			fmt.Fprintln(w, color.New(color.FgHiBlack).Sprint("  "+ve.Result.Detail))
		}
	}
	return err
}

// startSpinner shows an indeterminate progress spinner on terminals and
// returns the function that removes it.
func startSpinner(w io.Writer, enabled bool, description string) func() {
	f, ok := w.(*os.File)
	if !enabled || !ok || !isatty.IsTerminal(f.Fd()) {
		return func() {}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	return func() {
		close(done)
		<-finished
		_ = bar.Finish()
	}
}
