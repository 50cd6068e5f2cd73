// Package environment decides whether phpmd can run for a workspace: the
// workspace must be a DDEV project, its containers must be up, and the tool
// must be installed in the web container.
package environment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"phpmdlens/internal/remote"
	"phpmdlens/internal/utils"
)

// MarkerFile identifies a DDEV project root.
var MarkerFile = filepath.Join(".ddev", "config.yaml")

// FailureKind classifies why validation failed.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureNoProject
	FailureNotRunning
	FailureToolMissing
	FailureUnknown
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureNoProject:
		return "no-project"
	case FailureNotRunning:
		return "not-running"
	case FailureToolMissing:
		return "tool-missing"
	case FailureUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// ValidationResult is produced fresh by every Validate call.
type ValidationResult struct {
	Valid   bool
	Kind    FailureKind
	Message string
	Detail  string
	// Project is the DDEV project name when the marker could be read.
	Project string
}

// Project holds the fields of .ddev/config.yaml used in messages.
type Project struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Docroot    string `yaml:"docroot"`
	PHPVersion string `yaml:"php_version"`
}

// Validator runs the environment checks. It keeps no results between calls:
// container state changes outside our control, so every analysis re-checks.
type Validator struct {
	FS       afero.Fs
	Executor *remote.Executor

	group singleflight.Group
}

func NewValidator(fs afero.Fs, executor *remote.Executor) *Validator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Validator{FS: fs, Executor: executor}
}

// Validate checks the workspace in order and stops at the first failure:
// project marker, then `<toolName> --version` inside the container.
// Concurrent calls for the same workspace and tool share one probe.
func (v *Validator) Validate(ctx context.Context, toolName, workspace string) ValidationResult {
	key := workspace + "\x00" + toolName
	res, _, _ := v.group.Do(key, func() (interface{}, error) {
		return v.validate(ctx, toolName, workspace), nil
	})
	return res.(ValidationResult)
}

func (v *Validator) validate(ctx context.Context, toolName, workspace string) ValidationResult {
	exists, err := afero.Exists(v.FS, filepath.Join(workspace, MarkerFile))
	if err != nil || !exists {
		return ValidationResult{
			Kind:    FailureNoProject,
			Message: fmt.Sprintf("No DDEV project found in %s", workspace),
			Detail:  "Run 'ddev config' in the project root to initialize DDEV, then 'ddev start'.",
		}
	}

	name := filepath.Base(workspace)
	if project, err := ReadProject(v.FS, workspace); err == nil && project.Name != "" {
		name = project.Name
	}

	_, err = v.Executor.Exec(ctx, toolName+" --version", workspace)
	if err == nil {
		return ValidationResult{Valid: true, Project: name}
	}

	output := err.Error()
	var ee *remote.ExecutionError
	if errors.As(err, &ee) {
		output = ee.Output()
	}

	result := ValidationResult{Kind: Classify(output), Project: name}
	switch result.Kind {
	case FailureNotRunning:
		result.Message = fmt.Sprintf("DDEV project %s is not running", name)
		result.Detail = "Run 'ddev start' and try again."
	case FailureToolMissing:
		result.Message = fmt.Sprintf("%s is not installed in the DDEV web container", toolName)
		result.Detail = fmt.Sprintf("Install it with 'ddev composer require --dev phpmd/phpmd' or make sure %s is on the container PATH.", toolName)
	default:
		result.Message = fmt.Sprintf("Could not run %s in the DDEV web container", toolName)
		result.Detail = utils.Excerpt(output)
	}
	return result
}

var notRunningSignals = []string{
	"not currently running",
	"not running",
	"is stopped",
	"is paused",
	"ddev start",
	"no such container",
	"container is not running",
}

var toolMissingSignals = []string{
	"command not found",
	"executable file not found",
	"not found",
	"no such file or directory",
}

// Classify maps the text of a failed `--version` probe to a FailureKind.
// Not-running signals win over not-found ones because DDEV's own errors for a
// stopped project can mention missing containers. A missing ddev binary on
// the host is not a tool problem and is reported as FailureUnknown.
func Classify(output string) FailureKind {
	text := strings.ToLower(output)

	if strings.Contains(text, "ddev: command not found") || strings.Contains(text, "ddev: not found") {
		return FailureUnknown
	}
	for _, s := range notRunningSignals {
		if strings.Contains(text, s) {
			return FailureNotRunning
		}
	}
	for _, s := range toolMissingSignals {
		if strings.Contains(text, s) {
			return FailureToolMissing
		}
	}
	return FailureUnknown
}

// ReadProject parses the DDEV marker file of workspace.
func ReadProject(fs afero.Fs, workspace string) (*Project, error) {
	data, err := afero.ReadFile(fs, filepath.Join(workspace, MarkerFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read DDEV config: %w", err)
	}

	var project Project
	if err := yaml.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("failed to parse DDEV config: %w", err)
	}
	return &project, nil
}

// FindProjectRoot walks up from start and returns the first directory that
// contains the DDEV marker.
func FindProjectRoot(fs afero.Fs, start string) (string, bool) {
	dir := filepath.Clean(start)
	if info, err := fs.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		if ok, _ := afero.Exists(fs, filepath.Join(dir, MarkerFile)); ok {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
