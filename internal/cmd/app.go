package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"phpmdlens/internal/analysis"
	"phpmdlens/internal/config"
	"phpmdlens/internal/environment"
	"phpmdlens/internal/logger"
	"phpmdlens/internal/remote"
	"phpmdlens/internal/tool/phpmd"
)

// newRunner builds the host command runner. Tests replace it.
var newRunner = func() remote.CommandRunner {
	return remote.NewShellCommandRunner()
}

// app is the object graph shared by the subcommands.
type app struct {
	workspace string
	store     *config.Store
	logger    *logger.ConsoleLogger
	executor  *remote.Executor
	validator *environment.Validator
	tool      *phpmd.Tool
	service   *analysis.Service
}

// newApp resolves the workspace from the --workspace flag, or from hint (a
// file or directory argument) when the flag is unset, and loads its config.
func newApp(cmd *cobra.Command, hint string) (*app, error) {
	workspace, err := resolveWorkspace(cmd, hint)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
		level = flag
	}
	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), level)
	for _, w := range cfg.Warnings {
		log.LogWarn(w)
	}
	if cfg.CustomConfigPath == "" {
		for _, issue := range phpmd.SuggestRulesets(cfg.Rulesets) {
			msg := fmt.Sprintf("unknown ruleset %q", issue.Name)
			if issue.Suggestion != "" {
				msg += fmt.Sprintf(", did you mean %q?", issue.Suggestion)
			}
			log.LogWarn(msg)
		}
	}

	store := config.NewStore(cfg)
	executor := remote.NewExecutor(newRunner())
	validator := environment.NewValidator(afero.NewOsFs(), executor)
	tool := phpmd.New(store)

	a := &app{
		workspace: workspace,
		store:     store,
		logger:    log,
		executor:  executor,
		validator: validator,
		tool:      tool,
	}
	a.service = analysis.New(analysis.Options{
		Workspace: workspace,
		Store:     store,
		Validator: validator,
		Executor:  executor,
		Tool:      tool,
		Logger:    log,
	})

	// Level changes from a reloaded config apply to the running logger.
	store.Subscribe(func(old, next *config.ToolConfig) {
		if flag, _ := cmd.Flags().GetString("log-level"); flag == "" && old.LogLevel != next.LogLevel {
			log.SetLevel(next.LogLevel)
		}
	})

	return a, nil
}

func (a *app) Close() {
	a.service.Close()
}

// configPath returns the workspace config file, or the default name when the
// workspace has none yet.
func (a *app) configPath() string {
	return configPathFor(a.workspace)
}

func configPathFor(workspace string) string {
	if path := config.FindConfigFile(workspace); path != "" {
		return path
	}
	return filepath.Join(workspace, config.ConfigFiles[0])
}

func resolveWorkspace(cmd *cobra.Command, hint string) (string, error) {
	if flag, _ := cmd.Flags().GetString("workspace"); flag != "" {
		abs, err := filepath.Abs(flag)
		if err != nil {
			return "", fmt.Errorf("failed to resolve workspace %s: %w", flag, err)
		}
		return abs, nil
	}

	start := hint
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		start = cwd
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}

	if root, ok := environment.FindProjectRoot(afero.NewOsFs(), abs); ok {
		return root, nil
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return filepath.Dir(abs), nil
	}
	return abs, nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// relativeTo shortens path for display when it lies inside dir.
func relativeTo(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
