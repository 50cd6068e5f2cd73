package types

import (
	"fmt"
	"strings"
)

// Severity mirrors the editor diagnostic levels. Lower values are more severe.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	default:
		return "unknown"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity accepts the configuration spellings error, warning and info.
func ParseSeverity(value string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info", "information":
		return SeverityInformation, nil
	default:
		return 0, fmt.Errorf("invalid severity %q (want error, warning or info)", value)
	}
}

// LineEnd marks a range end that extends to the end of the line. Hosts clamp
// it to the actual line length.
const LineEnd = 1<<31 - 1

// Position is zero-based.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// FullLine returns the range covering the whole zero-based line.
func FullLine(line int) Range {
	return Range{
		Start: Position{Line: line, Character: 0},
		End:   Position{Line: line, Character: LineEnd},
	}
}

// DiagnosticCode is the rule id, optionally paired with a documentation link.
type DiagnosticCode struct {
	Value  string `json:"value"`
	Target string `json:"target,omitempty"`
}

type Diagnostic struct {
	Range    Range          `json:"range"`
	Message  string         `json:"message"`
	Severity Severity       `json:"severity"`
	Source   string         `json:"source"`
	Code     DiagnosticCode `json:"code"`
	RuleSet  string         `json:"ruleSet,omitempty"`
}
