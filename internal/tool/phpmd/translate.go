package phpmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"phpmdlens/internal/config"
	"phpmdlens/internal/types"
	"phpmdlens/internal/utils"
)

// Source tags diagnostics produced from phpmd reports.
const Source = "phpmd"

// ParseError is returned when phpmd output is not a JSON report. Excerpt is a
// bounded piece of the offending output, safe to show to the user.
type ParseError struct {
	Excerpt string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Excerpt == "" {
		return fmt.Sprintf("failed to parse phpmd output: %v", e.Err)
	}
	return fmt.Sprintf("failed to parse phpmd output: %v: %s", e.Err, e.Excerpt)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError checks if the error is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// SeverityForPriority maps phpmd priorities to diagnostic severities.
// Unexpected priorities map to warning so a finding is never dropped.
func SeverityForPriority(priority int) types.Severity {
	switch priority {
	case 1:
		return types.SeverityError
	case 2, 3:
		return types.SeverityWarning
	case 4, 5:
		return types.SeverityInformation
	default:
		return types.SeverityWarning
	}
}

// ShouldReport reports whether a diagnostic of severity sev passes the
// configured minimum. Higher minimums accept strictly fewer severities.
func ShouldReport(min, sev types.Severity) bool {
	switch min {
	case types.SeverityError:
		return sev == types.SeverityError
	case types.SeverityWarning:
		return sev == types.SeverityError || sev == types.SeverityWarning
	default:
		return true
	}
}

// Parse decodes a phpmd JSON report.
func Parse(raw string) (*types.AnalysisResult, error) {
	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &result); err != nil {
		return nil, &ParseError{Excerpt: utils.Excerpt(raw), Err: err}
	}
	return &result, nil
}

// Translate turns a phpmd report into diagnostics in report order, dropping
// the ones below cfg.MinSeverity. Ranges cover the whole reported begin line;
// phpmd column data is not precise enough for highlighting.
func Translate(raw string, cfg *config.ToolConfig) ([]types.Diagnostic, error) {
	result, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	min := types.SeverityInformation
	if cfg != nil && cfg.MinSeverity != 0 {
		min = cfg.MinSeverity
	}

	diagnostics := make([]types.Diagnostic, 0, result.ViolationCount())
	for _, file := range result.Files {
		for _, v := range file.Violations {
			severity := SeverityForPriority(v.Priority)
			if !ShouldReport(min, severity) {
				continue
			}
			diagnostics = append(diagnostics, toDiagnostic(v, severity))
		}
	}

	return diagnostics, nil
}

func toDiagnostic(v types.Violation, severity types.Severity) types.Diagnostic {
	line := v.BeginLine - 1
	if line < 0 {
		line = 0
	}

	return types.Diagnostic{
		Range:    types.FullLine(line),
		Message:  strings.TrimSpace(v.Description),
		Severity: severity,
		Source:   Source,
		Code: types.DiagnosticCode{
			Value:  v.Rule,
			Target: v.ExternalInfoURL,
		},
		RuleSet: v.RuleSet,
	}
}
