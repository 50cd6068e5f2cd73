package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"phpmdlens/internal/analysis"
	"phpmdlens/internal/config"
	"phpmdlens/internal/logger"
	"phpmdlens/internal/report"
	"phpmdlens/internal/scheduler"
	"phpmdlens/internal/types"
)

// skippedDirs are never watched for PHP changes.
var skippedDirs = map[string]bool{
	".git":         true,
	".ddev":        true,
	"vendor":       true,
	"node_modules": true,
}

// NewWatchCommand creates and returns the watch subcommand
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Analyze PHP files as they change",
		Long: `Watch the project for changes to .php files and analyze them.

With validate-on = save each write triggers a run at once. With
validate-on = type writes are debounced and only the last one inside the
debounce window is analyzed. Changes to .phpmdlens.rc are applied without a
restart; disabling phpmd clears every diagnostic.

Stop with Ctrl+C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runWatch(cmd, dir)
		},
	}

	return cmd
}

func runWatch(cmd *cobra.Command, dir string) error {
	a, err := newApp(cmd, dir)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := a.workspace
	if dir != "" {
		root = absPath(dir)
	}

	console := &watchConsole{out: cmd.OutOrStdout(), workspace: a.workspace}
	a.service.Publisher().Subscribe(console.printDiagnostics)
	a.service.OnIndicatorChange(func() {
		console.printStatus(a.service)
	})

	sched := scheduler.New(a.store, func(ctx context.Context, doc string) error {
		_, err := a.service.Analyze(ctx, doc)
		if errors.Is(err, analysis.ErrBusy) {
			return nil
		}
		return err
	}, a.logger)
	defer sched.Stop()

	cw, err := config.NewWatcher(a.workspace, a.store, func(err error) {
		a.logger.LogWarn(fmt.Sprintf("config reload failed: %v", err))
	})
	if err != nil {
		return err
	}
	defer cw.Close()

	a.store.Subscribe(func(old, next *config.ToolConfig) {
		a.logger.LogInfo(fmt.Sprintf("configuration reloaded from %s", next.Source))
		for _, w := range next.Warnings {
			a.logger.LogWarn(w)
		}
	})

	dw, err := newDocumentWatcher(root)
	if err != nil {
		return err
	}
	defer dw.Close()

	a.service.Start()
	if a.store.Current().ValidateEnvironment {
		a.service.Validate(ctx)
	}
	console.printStatus(a.service)
	a.logger.LogInfo(fmt.Sprintf("watching %s for PHP changes", root))

	return dw.run(ctx, a.logger, func(doc string, removed bool) {
		if console.setActive(doc) {
			console.printStatus(a.service)
		}
		if removed {
			sched.Cancel(doc)
			a.service.Invalidate(doc)
			return
		}
		if !sched.DocumentChanged(doc) {
			sched.DocumentSaved(doc)
		}
	})
}

// watchConsole serializes output from the analysis goroutines.
type watchConsole struct {
	mu        sync.Mutex
	out       io.Writer
	workspace string
	active    string
}

// setActive records doc as the document in focus and reports whether that
// changed.
func (c *watchConsole) setActive(doc string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == doc {
		return false
	}
	c.active = doc
	return true
}

func (c *watchConsole) printDiagnostics(doc string, diagnostics []types.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	report.PrintDiagnostics(c.out, relativeTo(c.workspace, doc), diagnostics)
}

func (c *watchConsole) printStatus(s *analysis.Service) {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	p := s.Indicator(active)

	c.mu.Lock()
	defer c.mu.Unlock()
	report.PrintStatus(c.out, p)
}

// documentWatcher reports changes to .php files below a root directory.
type documentWatcher struct {
	root    string
	watcher *fsnotify.Watcher
}

func newDocumentWatcher(root string) (*documentWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dw := &documentWatcher{root: root, watcher: fw}
	if err := dw.addRecursive(root); err != nil {
		fw.Close()
		return nil, err
	}
	return dw, nil
}

// addRecursive adds dir and its subdirectories, skipping dependency and
// tooling directories.
func (dw *documentWatcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != dir && skippedDirs[info.Name()] {
			return filepath.SkipDir
		}
		if err := dw.watcher.Add(path); err != nil && !os.IsPermission(err) {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// run dispatches events until ctx is done. onChange receives the absolute
// path of a changed document and whether it went away.
func (dw *documentWatcher) run(ctx context.Context, log logger.Logger, onChange func(doc string, removed bool)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return nil
			}
			dw.handleEvent(event, log, onChange)
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return nil
			}
			log.LogWarn(fmt.Sprintf("file watcher: %v", err))
		}
	}
}

func (dw *documentWatcher) handleEvent(event fsnotify.Event, log logger.Logger, onChange func(string, bool)) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := dw.addRecursive(path); err != nil {
				log.LogWarn(err.Error())
			}
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(path), ".php") {
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		onChange(path, false)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		onChange(path, true)
	}
}

func (dw *documentWatcher) Close() error {
	return dw.watcher.Close()
}
