package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"phpmdlens/internal/utils"
)

// DefaultContainerCommand runs a shell command inside the DDEV web container.
const DefaultContainerCommand = "ddev exec"

// CommandRunner runs a shell command line in dir and returns stdout and
// stderr separately. err is non-nil when the process could not start or
// exited non-zero.
type CommandRunner interface {
	Run(ctx context.Context, dir, command string) (stdout, stderr string, exitCode int, err error)
}

// ShellCommandRunner executes command lines through sh -c.
type ShellCommandRunner struct {
	Shell string
}

func NewShellCommandRunner() *ShellCommandRunner {
	return &ShellCommandRunner{Shell: "sh"}
}

func (r *ShellCommandRunner) Run(ctx context.Context, dir, command string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, r.Shell, "-c", command)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		exitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
	}

	return stdout.String(), stderr.String(), exitCode, err
}

// ExecutionError is returned when a container command failed without writing
// anything to stdout.
type ExecutionError struct {
	Command  string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *ExecutionError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("command %q failed", e.Command))
	if e.ExitCode > 0 {
		sb.WriteString(fmt.Sprintf(" with exit code %d", e.ExitCode))
	}
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	if stderr := utils.Excerpt(e.Stderr); stderr != "" {
		sb.WriteString(fmt.Sprintf(" (stderr: %s)", stderr))
	}
	return sb.String()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Output returns the text best describing the failure, used for
// classification and user-facing excerpts.
func (e *ExecutionError) Output() string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		parts = append(parts, s)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, "\n")
}

// IsExecutionError checks if the error is or wraps an ExecutionError.
func IsExecutionError(err error) bool {
	if err == nil {
		return false
	}
	var ee *ExecutionError
	return errors.As(err, &ee)
}

// Executor runs commands inside the project container.
type Executor struct {
	Runner CommandRunner
	// Container is the command prefix that enters the container.
	Container string
}

func NewExecutor(runner CommandRunner) *Executor {
	if runner == nil {
		runner = NewShellCommandRunner()
	}
	return &Executor{Runner: runner, Container: DefaultContainerCommand}
}

// Wrap returns the host command line that runs command inside the container.
func (e *Executor) Wrap(command string) string {
	return e.Container + " " + ShellQuote(command)
}

// Exec runs command inside the container with workspace as working directory.
// phpmd exits non-zero when it finds violations while still printing a valid
// report, so any stdout counts as a result whatever the exit code. Only a
// failure that produced no stdout is returned as an *ExecutionError.
func (e *Executor) Exec(ctx context.Context, command, workspace string) (string, error) {
	stdout, stderr, exitCode, err := e.Runner.Run(ctx, workspace, e.Wrap(command))

	if strings.TrimSpace(stdout) != "" {
		return stdout, nil
	}
	if err != nil {
		return "", &ExecutionError{
			Command:  command,
			Stderr:   stderr,
			ExitCode: exitCode,
			Err:      err,
		}
	}
	return stdout, nil
}

// ShellQuote quotes s as a single POSIX shell word. Embedded single quotes
// are closed, escaped and reopened.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
