package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"phpmdlens/internal/status"
	"phpmdlens/internal/types"
)

func severityStyle(s types.Severity) lipgloss.Style {
	switch s {
	case types.SeverityError:
		return errorStyle
	case types.SeverityWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

// PrintDiagnostics writes the diagnostics of doc, one per line, with
// one-based line numbers.
func PrintDiagnostics(w io.Writer, doc string, diagnostics []types.Diagnostic) {
	fmt.Fprintln(w, titleStyle.Render("PHPMD - "+doc))

	if len(diagnostics) == 0 {
		fmt.Fprintln(w, cellStyle.Render("🎉 No issues found."))
		return
	}

	for _, d := range diagnostics {
		line := lineStyle.Render(fmt.Sprintf("%4d", d.Range.Start.Line+1))
		severity := severityStyle(d.Severity).Render(fmt.Sprintf("%-7s", d.Severity))
		rule := ruleStyle.Render(d.Code.Value)

		fmt.Fprintf(w, "%s %s %s %s\n", line, severity, rule, d.Message)
	}

	errs, warnings, infos := CountBySeverity(diagnostics)
	fmt.Fprintf(w, "\n  • %d issues (%s errors, %s warnings, %s info)\n",
		len(diagnostics),
		errorStyle.Render(fmt.Sprintf("%d", errs)),
		warningStyle.Render(fmt.Sprintf("%d", warnings)),
		infoStyle.Render(fmt.Sprintf("%d", infos)))
}

// PrintRuleSummary writes the topN most violated rules.
func PrintRuleSummary(w io.Writer, entries []RuleEntry, topN int) {
	fmt.Fprintln(w, titleStyle.Render("Most Violated Rules"))

	maxEntries := topN
	if len(entries) < maxEntries {
		maxEntries = len(entries)
	}

	for i := 0; i < maxEntries; i++ {
		entry := entries[i]
		rank := rankStyle.Render(fmt.Sprintf("%2d", entry.Rank))
		rule := ruleStyle.Render(entry.Rule)

		fmt.Fprintf(w, "%s. %s – %d violations (%s)\n", rank, rule, entry.Count, entry.RuleSet)
	}
}

// PrintStatus renders the status indicator as a colored badge followed by
// its tooltip.
func PrintStatus(w io.Writer, p status.Presentation) {
	badge := badgeStyle.Copy()
	switch p.State {
	case status.Disabled:
		badge = badge.Foreground(lipgloss.Color("#878787"))
	case status.Unavailable:
		badge = badge.Foreground(lipgloss.Color("#ffff00"))
	case status.HasIssues:
		badge = badge.Foreground(lipgloss.Color("#ff0000"))
	default:
		badge = badge.Foreground(lipgloss.Color("#00ff00"))
	}

	fmt.Fprintf(w, "%s %s\n", badge.Render(p.Label), p.Tooltip)
	fmt.Fprintf(w, "%s\n", lineStyle.Render("→ phpmdlens "+p.Command))
}
