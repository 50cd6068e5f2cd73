// Package scheduler turns document events into analysis runs: debounced for
// edits, immediate for saves and manual requests.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"phpmdlens/internal/config"
	"phpmdlens/internal/logger"
)

// ErrDisabled is returned by Manual while the tool is turned off.
var ErrDisabled = errors.New("phpmd is disabled")

// RunFunc performs one analysis of doc.
type RunFunc func(ctx context.Context, doc string) error

// pendingRun is the token of an armed debounce timer. Arming a new one for the
// same document invalidates the previous token.
type pendingRun struct {
	token uint64
	timer *time.Timer
}

type Scheduler struct {
	store  *config.Store
	run    RunFunc
	logger logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	pending     map[string]*pendingRun
	nextToken   uint64
	stopped     bool
	unsubscribe func()
	wg          sync.WaitGroup
}

func New(store *config.Store, run RunFunc, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		store:   store,
		run:     run,
		logger:  log,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]*pendingRun),
	}
	s.unsubscribe = store.Subscribe(s.onConfigChange)
	return s
}

// DocumentChanged (re)arms the debounce timer for doc when the tool is
// enabled in on-type mode. Only the last edit inside the window runs.
func (s *Scheduler) DocumentChanged(doc string) bool {
	cfg := s.store.Current()
	if !cfg.Enabled || cfg.ValidateOn != config.OnType {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}

	if p, ok := s.pending[doc]; ok {
		p.timer.Stop()
	}
	s.nextToken++
	token := s.nextToken
	p := &pendingRun{token: token}
	p.timer = time.AfterFunc(cfg.Debounce, func() { s.fire(doc, token) })
	s.pending[doc] = p

	return true
}

// DocumentSaved starts a run right away when the tool is enabled in on-save
// mode.
func (s *Scheduler) DocumentSaved(doc string) bool {
	cfg := s.store.Current()
	if !cfg.Enabled || cfg.ValidateOn != config.OnSave {
		return false
	}
	return s.dispatch(doc)
}

// Manual runs doc now, whatever the mode, and returns the run's error. A
// pending debounce for doc is dropped since this run supersedes it.
func (s *Scheduler) Manual(ctx context.Context, doc string) error {
	if !s.store.Current().Enabled {
		return ErrDisabled
	}
	s.Cancel(doc)
	return s.safeRun(ctx, doc)
}

// Cancel drops a pending debounce for doc.
func (s *Scheduler) Cancel(doc string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[doc]; ok {
		p.timer.Stop()
		delete(s.pending, doc)
	}
}

// CancelAll drops every pending debounce.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for doc, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, doc)
	}
}

// Pending reports whether doc has an armed debounce timer.
func (s *Scheduler) Pending(doc string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[doc]
	return ok
}

// Stop cancels timers, cancels the context of running analyses and waits for
// them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for doc, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, doc)
	}
	s.mu.Unlock()

	s.unsubscribe()
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) fire(doc string, token uint64) {
	s.mu.Lock()
	p, ok := s.pending[doc]
	if !ok || p.token != token {
		s.mu.Unlock()
		return
	}
	delete(s.pending, doc)
	s.mu.Unlock()

	s.dispatch(doc)
}

func (s *Scheduler) dispatch(doc string) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		if err := s.safeRun(s.ctx, doc); err != nil {
			s.logger.LogWarn(fmt.Sprintf("analysis of %s: %v", doc, err))
		}
	}()
	return true
}

// safeRun keeps a panicking run from taking the host down.
func (s *Scheduler) safeRun(ctx context.Context, doc string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v", r)
			s.logger.LogError(fmt.Sprintf("analysis of %s panicked: %v", doc, r))
		}
	}()
	return s.run(ctx, doc)
}

func (s *Scheduler) onConfigChange(old, next *config.ToolConfig) {
	if !next.Enabled || next.ValidateOn != config.OnType {
		s.CancelAll()
	}
}
