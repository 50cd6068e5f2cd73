package phpmd

import (
	"strings"

	"phpmdlens/internal/config"
	"phpmdlens/internal/remote"
)

// Executable is the phpmd binary name inside the container.
const Executable = "phpmd"

// BuildCommand returns `phpmd <file> json <rulesets|config>`. A custom ruleset
// file takes precedence over the named rulesets; the two are never combined.
// Every argument is shell-quoted.
func BuildCommand(relPath string, cfg *config.ToolConfig) string {
	ruleArg := strings.Join(config.DefaultRulesets, ",")
	if cfg != nil {
		switch {
		case cfg.CustomConfigPath != "":
			ruleArg = cfg.CustomConfigPath
		case len(cfg.Rulesets) > 0:
			ruleArg = strings.Join(cfg.Rulesets, ",")
		}
	}

	return strings.Join([]string{
		Executable,
		remote.ShellQuote(relPath),
		"json",
		remote.ShellQuote(ruleArg),
	}, " ")
}
