package environment

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phpmdlens/internal/remote"
)

const workspace = "/srv/shop"

type scriptedRunner struct {
	stdout, stderr string
	err            error
	calls          atomic.Int32
	lastCommand    string
}

func (r *scriptedRunner) Run(ctx context.Context, dir, command string) (string, string, int, error) {
	r.calls.Add(1)
	r.lastCommand = command
	code := 0
	if r.err != nil {
		code = 1
	}
	return r.stdout, r.stderr, code, r.err
}

func newProjectFS(t *testing.T, marker string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(workspace, MarkerFile), []byte(marker), 0644))
	return fs
}

func TestValidateNoProject(t *testing.T) {
	runner := &scriptedRunner{stdout: "PHPMD 2.15.0"}
	v := NewValidator(afero.NewMemMapFs(), remote.NewExecutor(runner))

	res := v.Validate(context.Background(), "phpmd", workspace)

	assert.False(t, res.Valid)
	assert.Equal(t, FailureNoProject, res.Kind)
	assert.Contains(t, res.Detail, "ddev config")
	assert.Zero(t, runner.calls.Load(), "no container call without a project")
}

func TestValidateValid(t *testing.T) {
	runner := &scriptedRunner{stdout: "PHPMD 2.15.0\n"}
	v := NewValidator(newProjectFS(t, "name: shop\ntype: php\n"), remote.NewExecutor(runner))

	res := v.Validate(context.Background(), "phpmd", workspace)

	assert.True(t, res.Valid)
	assert.Equal(t, FailureNone, res.Kind)
	assert.Equal(t, "shop", res.Project)
	assert.Equal(t, `ddev exec 'phpmd --version'`, runner.lastCommand)
}

func TestValidateFailureKinds(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   FailureKind
		detail string
	}{
		{"not running", "Failed to execute command: project shop is not currently running. Try 'ddev start'.", FailureNotRunning, "ddev start"},
		{"tool missing", "bash: line 1: phpmd: command not found", FailureToolMissing, "composer require"},
		{"unknown", "permission denied while talking to docker daemon", FailureUnknown, "permission denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &scriptedRunner{stderr: tt.stderr, err: errors.New("exit status 1")}
			v := NewValidator(newProjectFS(t, "name: shop\n"), remote.NewExecutor(runner))

			res := v.Validate(context.Background(), "phpmd", workspace)

			assert.False(t, res.Valid)
			assert.Equal(t, tt.want, res.Kind)
			assert.NotEmpty(t, res.Message)
			assert.Contains(t, res.Detail, tt.detail)
		})
	}
}

func TestValidateUnknownDetailIsTruncated(t *testing.T) {
	runner := &scriptedRunner{stderr: strings.Repeat("e", 500), err: errors.New("exit status 1")}
	v := NewValidator(newProjectFS(t, "name: shop\n"), remote.NewExecutor(runner))

	res := v.Validate(context.Background(), "phpmd", workspace)

	assert.Equal(t, FailureUnknown, res.Kind)
	assert.LessOrEqual(t, len(res.Detail), 203)
}

func TestValidateIsNotCached(t *testing.T) {
	runner := &scriptedRunner{stdout: "PHPMD 2.15.0"}
	v := NewValidator(newProjectFS(t, "name: shop\n"), remote.NewExecutor(runner))

	require.True(t, v.Validate(context.Background(), "phpmd", workspace).Valid)

	runner.stdout = ""
	runner.stderr = "project shop is not running"
	runner.err = errors.New("exit status 1")

	res := v.Validate(context.Background(), "phpmd", workspace)
	assert.Equal(t, FailureNotRunning, res.Kind)
	assert.Equal(t, int32(2), runner.calls.Load())
}

func TestValidateMalformedMarkerStillCounts(t *testing.T) {
	runner := &scriptedRunner{stdout: "PHPMD 2.15.0"}
	v := NewValidator(newProjectFS(t, "name: [unterminated"), remote.NewExecutor(runner))

	res := v.Validate(context.Background(), "phpmd", workspace)

	assert.True(t, res.Valid)
	assert.Equal(t, "shop", res.Project, "falls back to the directory name")
}

func TestClassify(t *testing.T) {
	assert.Equal(t, FailureNotRunning, Classify("Error: No such container: ddev-shop-web"))
	assert.Equal(t, FailureNotRunning, Classify("Project is paused"))
	assert.Equal(t, FailureToolMissing, Classify(`exec: "phpmd": executable file not found in $PATH`))
	assert.Equal(t, FailureToolMissing, Classify("sh: 1: phpmd: not found"))
	assert.Equal(t, FailureUnknown, Classify("sh: 1: ddev: not found"))
	assert.Equal(t, FailureUnknown, Classify("segmentation fault"))
}

func TestFindProjectRoot(t *testing.T) {
	fs := newProjectFS(t, "name: shop\n")
	file := filepath.Join(workspace, "src", "Controller", "Cart.php")
	require.NoError(t, afero.WriteFile(fs, file, []byte("<?php"), 0644))

	root, ok := FindProjectRoot(fs, file)
	assert.True(t, ok)
	assert.Equal(t, workspace, root)

	_, ok = FindProjectRoot(fs, "/elsewhere/file.php")
	assert.False(t, ok)
}

func TestReadProject(t *testing.T) {
	fs := newProjectFS(t, "name: shop\ntype: drupal10\ndocroot: web\nphp_version: \"8.3\"\n")

	p, err := ReadProject(fs, workspace)
	require.NoError(t, err)
	assert.Equal(t, "shop", p.Name)
	assert.Equal(t, "drupal10", p.Type)
	assert.Equal(t, "web", p.Docroot)
	assert.Equal(t, "8.3", p.PHPVersion)
}

func TestFailureKindString(t *testing.T) {
	assert.Equal(t, "not-running", FailureNotRunning.String())
	assert.Equal(t, "tool-missing", FailureToolMissing.String())
}
