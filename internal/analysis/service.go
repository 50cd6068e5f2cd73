// Package analysis ties the pieces of a run together: validate the DDEV
// environment, run phpmd in the container, translate the report and publish
// the diagnostics.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"phpmdlens/internal/config"
	"phpmdlens/internal/environment"
	"phpmdlens/internal/logger"
	"phpmdlens/internal/publisher"
	"phpmdlens/internal/remote"
	"phpmdlens/internal/status"
	"phpmdlens/internal/tool"
	"phpmdlens/internal/types"
	"phpmdlens/internal/utils"
)

var (
	ErrDisabled = errors.New("phpmd is disabled")
	ErrBusy     = errors.New("an analysis of this document is already running")
)

// ValidationError is returned when the environment check fails before the
// tool could run. Diagnostics are left as they were.
type ValidationError struct {
	Result environment.ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("environment not ready (%s): %s", e.Result.Kind, e.Result.Message)
}

// IsValidationError checks if the error is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Run describes one analysis.
type Run struct {
	ID          string
	Document    string
	Diagnostics []types.Diagnostic
	// Discarded is set when the result arrived after the tool was disabled
	// or a newer run for the document had started.
	Discarded bool
	Duration  time.Duration
}

type Options struct {
	Workspace string
	Store     *config.Store
	Validator *environment.Validator
	Executor  *remote.Executor
	Tool      tool.Tool
	Publisher *publisher.Publisher
	Logger    logger.Logger
}

type Service struct {
	workspace string
	store     *config.Store
	validator *environment.Validator
	executor  *remote.Executor
	tool      tool.Tool
	publisher *publisher.Publisher
	logger    logger.Logger

	mu             sync.Mutex
	gates          map[string]*utils.Semaphore
	sequence       map[string]uint64
	rerun          map[string]bool
	lastValidation *environment.ValidationResult
	onIndicator    func()

	// publishMu orders the final enabled/sequence check against disabling.
	publishMu sync.Mutex

	unsubscribe func()
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

func New(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	pub := opts.Publisher
	if pub == nil {
		pub = publisher.New()
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		workspace: filepath.Clean(opts.Workspace),
		store:     opts.Store,
		validator: opts.Validator,
		executor:  opts.Executor,
		tool:      opts.Tool,
		publisher: pub,
		logger:    log,
		gates:     make(map[string]*utils.Semaphore),
		sequence:  make(map[string]uint64),
		rerun:     make(map[string]bool),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.unsubscribe = s.store.Subscribe(s.OnConfigChange)
	return s
}

func (s *Service) Publisher() *publisher.Publisher {
	return s.publisher
}

func (s *Service) Workspace() string {
	return s.workspace
}

// OnIndicatorChange registers fn to be called whenever the inputs of the
// status indicator may have changed.
func (s *Service) OnIndicatorChange(fn func()) {
	s.mu.Lock()
	s.onIndicator = fn
	s.mu.Unlock()
}

// Analyze runs the tool for doc and publishes the result. doc may be
// absolute or relative to the workspace.
//
// Only one run per document is in flight. A call that arrives while one is
// running returns ErrBusy and marks the document for a rerun; the in-flight
// call then analyzes the document once more before returning, so the last
// trigger is always covered. Any number of busy calls collapse into one rerun.
func (s *Service) Analyze(ctx context.Context, doc string) (*Run, error) {
	if !s.store.Current().Enabled {
		return nil, ErrDisabled
	}

	doc = s.resolve(doc)
	if !s.acquire(doc) {
		s.logger.LogDebug(fmt.Sprintf("%s is being analyzed, rerun queued", doc))
		return nil, ErrBusy
	}

	for {
		run, err := s.analyze(ctx, doc)
		if !s.finish(doc, ctx.Err() == nil) {
			return run, err
		}
		s.logger.LogDebug(fmt.Sprintf("rerunning analysis of %s", doc))
	}
}

func (s *Service) analyze(ctx context.Context, doc string) (*Run, error) {
	cfg := s.store.Current()
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	seq := s.begin(doc)
	s.publisher.SetInFlight(doc, true)
	defer s.publisher.SetInFlight(doc, false)

	run := &Run{ID: uuid.NewString(), Document: doc}
	start := time.Now()
	defer func() { run.Duration = time.Since(start) }()

	s.logger.LogDebug(fmt.Sprintf("[%s] analyzing %s", shortID(run.ID), doc))

	if cfg.ValidateEnvironment {
		if res := s.Validate(ctx); !res.Valid {
			return run, &ValidationError{Result: res}
		}
	}

	rel, err := s.relativePath(doc)
	if err != nil {
		return run, err
	}

	runCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	command := s.tool.BuildCommand(rel, cfg)
	s.logger.LogDebug(fmt.Sprintf("[%s] %s", shortID(run.ID), s.executor.Wrap(command)))

	raw, err := s.executor.Exec(runCtx, command, s.workspace)
	if err != nil {
		s.logger.LogWarn(fmt.Sprintf("[%s] %s failed: %v", shortID(run.ID), s.tool.Name(), err))
		return run, err
	}

	diagnostics, err := s.tool.ProcessOutput(raw, cfg)
	if err != nil {
		s.logger.LogWarn(fmt.Sprintf("[%s] %v", shortID(run.ID), err))
		if s.publishIfCurrent(run, seq, nil) {
			s.notifyIndicator()
		}
		return run, err
	}

	run.Diagnostics = diagnostics
	if s.publishIfCurrent(run, seq, diagnostics) {
		s.notifyIndicator()
	}
	s.logger.LogDebug(fmt.Sprintf("[%s] %d diagnostics for %s", shortID(run.ID), len(diagnostics), doc))

	return run, nil
}

// Validate probes the environment and records the result for the indicator.
func (s *Service) Validate(ctx context.Context) environment.ValidationResult {
	res := s.validator.Validate(ctx, s.tool.Name(), s.workspace)

	s.mu.Lock()
	prev := s.lastValidation
	s.lastValidation = &res
	s.mu.Unlock()

	if !res.Valid && (prev == nil || prev.Valid || prev.Kind != res.Kind) {
		s.logger.LogWarn(fmt.Sprintf("%s: %s", res.Message, res.Detail))
	}
	if prev == nil || prev.Valid != res.Valid {
		s.notifyIndicator()
	}
	return res
}

// LastValidation returns a copy of the most recent validation result, or nil
// when none has run.
func (s *Service) LastValidation() *environment.ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastValidation == nil {
		return nil
	}
	res := *s.lastValidation
	return &res
}

// Indicator computes the status indicator for the active document. An empty
// activeDoc means no document is focused.
func (s *Service) Indicator(activeDoc string) status.Presentation {
	cfg := s.store.Current()
	last := s.LastValidation()

	hasIssues := false
	if activeDoc != "" {
		hasIssues = s.publisher.HasIssues(s.resolve(activeDoc))
	}

	message := ""
	if last != nil {
		message = last.Message
	}
	return status.Present(status.Compute(cfg.Enabled, last, hasIssues), message)
}

// OnConfigChange reacts to a new settings snapshot. Disabling clears every
// published diagnostic at once and invalidates runs still in flight.
func (s *Service) OnConfigChange(old, next *config.ToolConfig) {
	switch {
	case old.Enabled && !next.Enabled:
		s.publishMu.Lock()
		s.mu.Lock()
		for doc := range s.sequence {
			s.sequence[doc]++
		}
		clear(s.rerun)
		s.mu.Unlock()
		s.publisher.ClearAll()
		s.publishMu.Unlock()
		s.logger.LogInfo("phpmd disabled, diagnostics cleared")
	case !old.Enabled && next.Enabled:
		s.mu.Lock()
		s.lastValidation = nil
		s.mu.Unlock()
		s.logger.LogInfo("phpmd enabled")
	default:
		return
	}
	s.notifyIndicator()
}

// Invalidate drops doc's diagnostics and any queued rerun, and makes an
// in-flight result for it stale, e.g. when the document is closed.
func (s *Service) Invalidate(doc string) {
	doc = s.resolve(doc)

	s.publishMu.Lock()
	s.mu.Lock()
	s.sequence[doc]++
	delete(s.rerun, doc)
	s.mu.Unlock()
	s.publisher.Clear(doc)
	s.publishMu.Unlock()
}

// Start launches the recovery probe. While the tool is enabled and the last
// validation failed, the environment is re-checked every RecoveryInterval.
func (s *Service) Start() {
	s.wg.Add(1)
	go s.recoveryLoop()
}

// Close stops the recovery probe and detaches from the config store.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.unsubscribe()
		s.cancel()
		s.wg.Wait()
	})
}

func (s *Service) recoveryLoop() {
	defer s.wg.Done()

	for {
		interval := s.store.Current().RecoveryInterval
		if interval <= 0 {
			interval = config.NewConfig().RecoveryInterval
		}

		timer := time.NewTimer(interval)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.probe()
		}
	}
}

func (s *Service) probe() {
	cfg := s.store.Current()
	last := s.LastValidation()
	if !cfg.Enabled || !cfg.ValidateEnvironment || last == nil || last.Valid {
		return
	}

	if res := s.Validate(s.ctx); res.Valid {
		s.logger.LogInfo(fmt.Sprintf("DDEV environment for %s is ready again", res.Project))
	}
}

// publishIfCurrent publishes unless the tool was disabled or a newer run for
// the document started while this one was in flight.
func (s *Service) publishIfCurrent(run *Run, seq uint64, diagnostics []types.Diagnostic) bool {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	if !s.store.Current().Enabled || !s.isLatest(run.Document, seq) {
		run.Discarded = true
		s.logger.LogDebug(fmt.Sprintf("[%s] discarding stale result for %s", shortID(run.ID), run.Document))
		return false
	}

	s.publisher.Publish(run.Document, diagnostics)
	return true
}

// acquire takes doc's gate, or records a rerun request when it is held.
func (s *Service) acquire(doc string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gates[doc]
	if !ok {
		g = utils.NewSemaphore(1)
		s.gates[doc] = g
	}
	if g.TryAcquire() {
		return true
	}
	s.rerun[doc] = true
	return false
}

// finish releases doc's gate and reports false, unless a rerun was requested
// while it was held and again allows one. Then the gate stays taken and finish
// reports true.
func (s *Service) finish(doc string, again bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	requested := s.rerun[doc]
	delete(s.rerun, doc)
	if requested && again {
		return true
	}
	s.gates[doc].Release()
	return false
}

func (s *Service) begin(doc string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence[doc]++
	return s.sequence[doc]
}

func (s *Service) isLatest(doc string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sequence[doc] == seq
}

func (s *Service) notifyIndicator() {
	s.mu.Lock()
	fn := s.onIndicator
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Service) resolve(doc string) string {
	if !filepath.IsAbs(doc) {
		doc = filepath.Join(s.workspace, doc)
	}
	return filepath.Clean(doc)
}

// relativePath returns doc relative to the project root in slash form, the
// way the container sees it.
func (s *Service) relativePath(doc string) (string, error) {
	rel, err := filepath.Rel(s.workspace, doc)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", doc, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the project root %s", doc, s.workspace)
	}
	return filepath.ToSlash(rel), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
