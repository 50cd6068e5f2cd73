// Package tool defines the contract every container-side linter implements so
// one orchestrator can drive phpmd and its siblings the same way.
package tool

import (
	"phpmdlens/internal/config"
	"phpmdlens/internal/types"
)

// Tool builds the command line for one file and turns the raw output of that
// command into diagnostics.
type Tool interface {
	// Name is the executable probed with --version during validation.
	Name() string
	// Source tags every diagnostic the tool produces.
	Source() string
	// Config returns the active settings snapshot.
	Config() *config.ToolConfig
	// BuildCommand returns the container command line for relPath.
	BuildCommand(relPath string, cfg *config.ToolConfig) string
	// ProcessOutput translates raw stdout into filtered diagnostics.
	ProcessOutput(raw string, cfg *config.ToolConfig) ([]types.Diagnostic, error)
}
