// Package phpmd implements tool.Tool for PHP Mess Detector.
package phpmd

import (
	"phpmdlens/internal/config"
	"phpmdlens/internal/tool"
	"phpmdlens/internal/types"
)

// Tool drives phpmd with the settings held by a config.Store.
type Tool struct {
	store *config.Store
}

var _ tool.Tool = (*Tool)(nil)

func New(store *config.Store) *Tool {
	return &Tool{store: store}
}

func (t *Tool) Name() string   { return Executable }
func (t *Tool) Source() string { return Source }

func (t *Tool) Config() *config.ToolConfig {
	return t.store.Current()
}

func (t *Tool) BuildCommand(relPath string, cfg *config.ToolConfig) string {
	return BuildCommand(relPath, cfg)
}

func (t *Tool) ProcessOutput(raw string, cfg *config.ToolConfig) ([]types.Diagnostic, error) {
	return Translate(raw, cfg)
}
