// Package status derives the indicator shown next to the editor's status bar.
package status

import (
	"fmt"

	"phpmdlens/internal/environment"
)

type State int

const (
	Disabled State = iota
	Unavailable
	Clean
	HasIssues
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Unavailable:
		return "unavailable"
	case Clean:
		return "clean"
	case HasIssues:
		return "has-issues"
	default:
		return "unknown"
	}
}

// Commands bound to the indicator.
const (
	CommandEnable  = "enable"
	CommandDoctor  = "doctor"
	CommandAnalyze = "analyze"
)

// Presentation is what the indicator renders for a State.
type Presentation struct {
	State   State
	Label   string
	Tooltip string
	Command string
}

// Compute picks the indicator state. A nil lastValidation means no probe has
// run yet and is treated as available.
func Compute(enabled bool, lastValidation *environment.ValidationResult, hasIssues bool) State {
	switch {
	case !enabled:
		return Disabled
	case lastValidation != nil && !lastValidation.Valid:
		return Unavailable
	case hasIssues:
		return HasIssues
	default:
		return Clean
	}
}

// Present maps a State to its label, tooltip and command. message is only
// used for Unavailable.
func Present(state State, message string) Presentation {
	p := Presentation{State: state}
	switch state {
	case Disabled:
		p.Label = "$(circle-slash) PHPMD"
		p.Tooltip = "PHPMD is disabled. Click to enable."
		p.Command = CommandEnable
	case Unavailable:
		p.Label = "$(warning) PHPMD"
		p.Tooltip = fmt.Sprintf("PHPMD unavailable: %s", message)
		p.Command = CommandDoctor
	case HasIssues:
		p.Label = "$(error) PHPMD"
		p.Tooltip = "PHPMD found issues in this file"
		p.Command = CommandAnalyze
	default:
		p.Label = "$(check) PHPMD"
		p.Tooltip = "PHPMD: no issues"
		p.Command = CommandAnalyze
	}
	return p
}
