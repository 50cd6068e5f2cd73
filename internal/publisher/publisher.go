// Package publisher owns the diagnostics shown for each open document.
package publisher

import (
	"sort"
	"sync"

	"phpmdlens/internal/types"
)

// Listener receives the diagnostics now visible for doc after every change.
// An empty slice means the document was cleared.
type Listener func(doc string, diagnostics []types.Diagnostic)

// RunState is the per-document state kept by the Publisher.
type RunState struct {
	Diagnostics []types.Diagnostic
	InFlight    bool
}

// Publisher stores the last published diagnostic set per document. A set is
// always replaced as a whole; nothing is merged.
type Publisher struct {
	mu        sync.RWMutex
	states    map[string]*RunState
	listeners map[int]Listener
	nextID    int
}

func New() *Publisher {
	return &Publisher{
		states:    make(map[string]*RunState),
		listeners: make(map[int]Listener),
	}
}

// Publish replaces the diagnostics of doc. The old set is dropped first and
// the new one stored only when it is non-empty, so a clean run never leaves
// stale entries behind.
func (p *Publisher) Publish(doc string, diagnostics []types.Diagnostic) {
	p.mu.Lock()
	state := p.stateLocked(doc)
	state.Diagnostics = nil
	if len(diagnostics) > 0 {
		state.Diagnostics = append([]types.Diagnostic(nil), diagnostics...)
	}
	p.pruneLocked(doc)
	p.mu.Unlock()

	p.notify(doc, diagnostics)
}

// Clear removes the diagnostics of doc.
func (p *Publisher) Clear(doc string) {
	p.mu.Lock()
	_, had := p.states[doc]
	if had {
		p.states[doc].Diagnostics = nil
		p.pruneLocked(doc)
	}
	p.mu.Unlock()

	if had {
		p.notify(doc, nil)
	}
}

// ClearAll removes the diagnostics of every document.
func (p *Publisher) ClearAll() {
	p.mu.Lock()
	var cleared []string
	for doc, state := range p.states {
		if len(state.Diagnostics) > 0 {
			cleared = append(cleared, doc)
		}
		state.Diagnostics = nil
		p.pruneLocked(doc)
	}
	p.mu.Unlock()

	sort.Strings(cleared)
	for _, doc := range cleared {
		p.notify(doc, nil)
	}
}

// Get returns a copy of the diagnostics currently published for doc.
func (p *Publisher) Get(doc string) []types.Diagnostic {
	p.mu.RLock()
	defer p.mu.RUnlock()

	state, ok := p.states[doc]
	if !ok || len(state.Diagnostics) == 0 {
		return nil
	}
	return append([]types.Diagnostic(nil), state.Diagnostics...)
}

// HasIssues reports whether doc has any published diagnostics.
func (p *Publisher) HasIssues(doc string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	state, ok := p.states[doc]
	return ok && len(state.Diagnostics) > 0
}

// Documents lists the documents that currently have diagnostics, sorted.
func (p *Publisher) Documents() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	docs := make([]string, 0, len(p.states))
	for doc, state := range p.states {
		if len(state.Diagnostics) > 0 {
			docs = append(docs, doc)
		}
	}
	sort.Strings(docs)
	return docs
}

// SetInFlight records whether an analysis is running for doc.
func (p *Publisher) SetInFlight(doc string, inFlight bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stateLocked(doc).InFlight = inFlight
	p.pruneLocked(doc)
}

// State returns a snapshot of the run state of doc.
func (p *Publisher) State(doc string) RunState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	state, ok := p.states[doc]
	if !ok {
		return RunState{}
	}
	return RunState{
		Diagnostics: append([]types.Diagnostic(nil), state.Diagnostics...),
		InFlight:    state.InFlight,
	}
}

// Subscribe registers l and returns a function that removes it.
func (p *Publisher) Subscribe(l Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = l

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

func (p *Publisher) stateLocked(doc string) *RunState {
	state, ok := p.states[doc]
	if !ok {
		state = &RunState{}
		p.states[doc] = state
	}
	return state
}

// pruneLocked drops entries that carry no information.
func (p *Publisher) pruneLocked(doc string) {
	if state, ok := p.states[doc]; ok && !state.InFlight && len(state.Diagnostics) == 0 {
		delete(p.states, doc)
	}
}

func (p *Publisher) notify(doc string, diagnostics []types.Diagnostic) {
	p.mu.RLock()
	listeners := make([]Listener, 0, len(p.listeners))
	for i := 0; i < p.nextID; i++ {
		if l, ok := p.listeners[i]; ok {
			listeners = append(listeners, l)
		}
	}
	p.mu.RUnlock()

	for _, l := range listeners {
		l(doc, diagnostics)
	}
}
