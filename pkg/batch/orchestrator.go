package batch

import (
	"context"
	"errors"
	"fmt"
	"log"

	"clinical-scribe-be/pkg/generation"
	"clinical-scribe-be/pkg/llm"
)

// Event is a state-machine input for one unit of work.
type Event string

const (
	EventStart   Event = "start"
	EventSucceed Event = "succeed"
	EventFail    Event = "fail"
)

// Transition is the pure per-unit state-transition function. It returns the
// next status and whether the event is legal from the current status.
// completed and error are terminal for a run.
func Transition(status UnitStatus, ev Event) (UnitStatus, bool) {
	switch {
	case status == StatusQueued && ev == EventStart:
		return StatusProcessing, true
	case status == StatusProcessing && ev == EventSucceed:
		return StatusCompleted, true
	case status == StatusProcessing && ev == EventFail:
		return StatusError, true
	}
	return status, false
}

// Generator is the boundary call to the document-generation service.
type Generator interface {
	Generate(ctx context.Context, in generation.Input) (string, error)
}

// PersistResult carries what the persistence layer learned about the unit.
// PatientName is set from extraction even when the store write failed.
type PersistResult struct {
	PatientName string
}

// Persister is the boundary call to the patient/report store.
type Persister interface {
	Persist(ctx context.Context, docType generation.DocumentType, text string) (PersistResult, error)
}

// Orchestrator drives every queued group (and nested session) through
// generation and persistence, exactly once per run, strictly in list order
// with no parallelism.
type Orchestrator struct {
	gen        Generator
	persist    Persister
	logger     *log.Logger
	onProgress func(Progress) // invoked after every state change; may be nil
}

func NewOrchestrator(gen Generator, persist Persister, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		gen:     gen,
		persist: persist,
		logger:  logger,
	}
}

// OnProgress registers a callback fired after every unit state change.
func (o *Orchestrator) OnProgress(fn func(Progress)) {
	o.onProgress = fn
}

// Run walks the batch. onComplete is invoked exactly once when the loop
// ends, whether it ran to completion or was stopped early, and regardless
// of how many units succeeded or failed.
func (o *Orchestrator) Run(ctx context.Context, b *Batch, onComplete func()) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return errors.New("batch already running")
	}
	b.running = true
	b.stopRequested = false
	// Errored units from a prior run become eligible again; completed
	// units stay terminal and are skipped.
	for _, g := range b.groups {
		requeueErrored(g)
	}
	groups := make([]*ClientGroup, len(b.groups))
	copy(groups, b.groups)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
		if onComplete != nil {
			onComplete()
		}
	}()

	for _, g := range groups {
		if b.stopWanted() {
			break
		}
		if g.DocumentType == generation.DocumentTypeSessionNote {
			o.runSessionGroup(ctx, b, g)
		} else {
			o.runGroup(ctx, b, g)
		}
	}
	return nil
}

// runGroup processes a non-session-note group as a single unit of work.
func (o *Orchestrator) runGroup(ctx context.Context, b *Batch, g *ClientGroup) {
	b.mu.RLock()
	eligible := g.Status == StatusQueued && len(g.Files) > 0
	files := g.Files
	b.mu.RUnlock()
	if !eligible {
		// Zero-file or already-terminal units are skipped silently,
		// with no status change.
		return
	}

	o.setGroupStatus(b, g, EventStart, "", "")

	in := generation.Input{
		Files:        partsOf(files),
		DocumentType: g.DocumentType,
		ClientIDHint: g.ClientIDHint,
		DateHint:     g.DateOfServiceHint,
	}
	name, err := o.processUnit(ctx, in)
	if err != nil {
		o.setGroupStatus(b, g, EventFail, "", errMessage(err))
		return
	}
	o.setGroupStatus(b, g, EventSucceed, name, "")
}

// runSessionGroup processes each fileful session as its own unit of work
// and aggregates the result onto the group.
func (o *Orchestrator) runSessionGroup(ctx context.Context, b *Batch, g *ClientGroup) {
	b.mu.RLock()
	sessions := make([]*EncounterSession, len(g.Sessions))
	copy(sessions, g.Sessions)
	groupEligible := g.Status != StatusCompleted
	b.mu.RUnlock()

	if !groupEligible || !anyFileful(sessions) {
		return
	}

	b.mu.Lock()
	g.Status = StatusProcessing
	b.mu.Unlock()
	o.notify(b)

	stopped := false
	for _, s := range sessions {
		if b.stopWanted() {
			stopped = true
			break
		}
		b.mu.RLock()
		eligible := s.Status == StatusQueued && len(s.Files) > 0
		files := s.Files
		b.mu.RUnlock()
		if !eligible {
			// Empty sessions remain queued forever in this run.
			continue
		}

		o.setSessionStatus(b, s, EventStart, "", "")

		in := generation.Input{
			Files:        partsOf(files),
			DocumentType: generation.DocumentTypeSessionNote,
			ClientIDHint: g.ClientIDHint,
			DateHint:     s.DateOfService,
		}
		name, err := o.processUnit(ctx, in)
		if err != nil {
			o.setSessionStatus(b, s, EventFail, "", errMessage(err))
			continue
		}
		o.setSessionStatus(b, s, EventSucceed, name, "")
	}

	// Aggregate: completed if every fileful session completed, even when a
	// stop landed afterwards; a stop that skipped eligible work or any
	// session error marks the group errored.
	b.mu.Lock()
	allDone := true
	var firstErr string
	for _, s := range g.Sessions {
		if len(s.Files) == 0 {
			continue
		}
		if s.Status != StatusCompleted {
			allDone = false
			if firstErr == "" && s.LastError != "" {
				firstErr = s.LastError
			}
		}
	}
	if allDone {
		g.Status = StatusCompleted
		for _, s := range g.Sessions {
			if s.ResultPatientName != "" {
				g.ResultPatientName = s.ResultPatientName
				break
			}
		}
	} else {
		g.Status = StatusError
		if stopped && firstErr == "" {
			firstErr = "batch stopped before all sessions were processed"
		}
		g.LastError = firstErr
	}
	b.mu.Unlock()
	o.notify(b)
}

// processUnit runs one generation call followed by a best-effort persist.
// A persistence failure is logged and swallowed: losing the generated text
// entirely is considered worse than losing only the durability of the save.
func (o *Orchestrator) processUnit(ctx context.Context, in generation.Input) (string, error) {
	text, err := o.gen.Generate(ctx, in)
	if err != nil {
		return "", err
	}

	res, err := o.persist.Persist(ctx, in.DocumentType, text)
	if err != nil {
		o.logger.Printf("[WARN] persist failed for %s unit, keeping generation result: %v", in.DocumentType, err)
	}
	return res.PatientName, nil
}

func (o *Orchestrator) setGroupStatus(b *Batch, g *ClientGroup, ev Event, name, errMsg string) {
	b.mu.Lock()
	next, ok := Transition(g.Status, ev)
	if ok {
		g.Status = next
		if name != "" {
			g.ResultPatientName = name
		}
		if errMsg != "" {
			g.LastError = errMsg
		}
	}
	b.mu.Unlock()
	o.notify(b)
}

func (o *Orchestrator) setSessionStatus(b *Batch, s *EncounterSession, ev Event, name, errMsg string) {
	b.mu.Lock()
	next, ok := Transition(s.Status, ev)
	if ok {
		s.Status = next
		if name != "" {
			s.ResultPatientName = name
		}
		if errMsg != "" {
			s.LastError = errMsg
		}
	}
	b.mu.Unlock()
	o.notify(b)
}

func (o *Orchestrator) notify(b *Batch) {
	if o.onProgress != nil {
		o.onProgress(b.Progress())
	}
}

func requeueErrored(g *ClientGroup) {
	if g.Status == StatusError {
		g.Status = StatusQueued
		g.LastError = ""
	}
	for _, s := range g.Sessions {
		if s.Status == StatusError {
			s.Status = StatusQueued
			s.LastError = ""
		}
	}
}

func anyFileful(sessions []*EncounterSession) bool {
	for _, s := range sessions {
		if len(s.Files) > 0 {
			return true
		}
	}
	return false
}

func partsOf(files []UploadedFile) []llm.Part {
	parts := make([]llm.Part, len(files))
	for i, f := range files {
		parts[i] = llm.Part{MimeType: f.MimeType, Data: f.Data}
	}
	return parts
}

func errMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "document generation failed"
	}
	return fmt.Sprintf("%v", err)
}
