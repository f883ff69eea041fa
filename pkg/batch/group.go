// Package batch holds the batch clinical document pipeline: the upload
// grouping model, the per-unit state machine, the sequential orchestrator,
// and the progress projection. It is deliberately free of HTTP, database,
// and LLM concerns; those arrive through small interfaces.
package batch

import (
	"sync"

	"clinical-scribe-be/pkg/generation"

	"github.com/google/uuid"
)

// UnitStatus is the four-state lifecycle shared by groups and sessions.
type UnitStatus string

const (
	StatusQueued     UnitStatus = "queued"
	StatusProcessing UnitStatus = "processing"
	StatusCompleted  UnitStatus = "completed"
	StatusError      UnitStatus = "error"
)

// UploadedFile is a file payload captured from an upload. Held in memory
// only; consumed once by the generation call.
type UploadedFile struct {
	Id       uuid.UUID
	FileName string
	MimeType string
	Data     []byte
}

// EncounterSession is one clinical encounter's worth of documents, nested
// inside a session-note group.
type EncounterSession struct {
	Id                uuid.UUID
	DateOfService     string // free text
	Files             []UploadedFile
	Status            UnitStatus
	ResultPatientName string
	LastError         string
}

// ClientGroup is one logical unit of batch work for a single
// patient/document-type combination.
//
// Invariant: a session-note group keeps Files empty (files live on
// sessions); any other type keeps Sessions empty.
type ClientGroup struct {
	Id                uuid.UUID
	DocumentType      generation.DocumentType
	Files             []UploadedFile
	ClientIDHint      string
	DateOfServiceHint string
	Sessions          []*EncounterSession
	Status            UnitStatus
	ResultPatientName string
	LastError         string
}

// Batch is the mutable collection of pending work. User-facing mutation is
// allowed only before a run starts; the orchestrator is the only writer
// while running. The mutex exists because a Go port has genuinely
// concurrent readers (status polling) alongside the run goroutine.
type Batch struct {
	mu            sync.RWMutex
	groups        []*ClientGroup
	running       bool
	stopRequested bool
}

func NewBatch() *Batch {
	return &Batch{}
}

func newSession() *EncounterSession {
	return &EncounterSession{
		Id:     uuid.New(),
		Status: StatusQueued,
	}
}

// AddGroup appends a new group in queued state and returns its id.
func (b *Batch) AddGroup(docType generation.DocumentType) uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()

	g := &ClientGroup{
		Id:           uuid.New(),
		DocumentType: docType,
		Status:       StatusQueued,
	}
	if docType == generation.DocumentTypeSessionNote {
		g.Sessions = []*EncounterSession{newSession()}
	}
	b.groups = append(b.groups, g)
	return g.Id
}

// RemoveGroup removes a group unconditionally, even mid-file-attachment.
// It is a silent no-op while the batch is running.
func (b *Batch) RemoveGroup(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}
	for i, g := range b.groups {
		if g.Id == id {
			b.groups = append(b.groups[:i], b.groups[i+1:]...)
			return
		}
	}
}

// SetGroupDocumentType changes a group's document type and re-establishes
// the structural invariants: entering session-note with zero sessions
// synthesizes one empty session; leaving session-note clears all sessions
// unconditionally (data loss is expected, there is no confirmation step).
func (b *Batch) SetGroupDocumentType(id uuid.UUID, docType generation.DocumentType) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return false
	}

	g := b.findGroup(id)
	if g == nil {
		return false
	}

	wasSessionNote := g.DocumentType == generation.DocumentTypeSessionNote
	isSessionNote := docType == generation.DocumentTypeSessionNote
	g.DocumentType = docType

	if isSessionNote {
		g.Files = nil
		if len(g.Sessions) == 0 {
			g.Sessions = []*EncounterSession{newSession()}
		}
	} else if wasSessionNote {
		g.Sessions = nil
	}
	return true
}

// SetGroupHints updates the free-text metadata passed through to generation.
func (b *Batch) SetGroupHints(id uuid.UUID, clientIDHint, dateOfServiceHint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return false
	}
	g := b.findGroup(id)
	if g == nil {
		return false
	}
	g.ClientIDHint = clientIDHint
	g.DateOfServiceHint = dateOfServiceHint
	return true
}

// AttachFiles appends files to a non-session-note group. Never deduplicates
// by name or content.
func (b *Batch) AttachFiles(groupId uuid.UUID, files ...UploadedFile) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return false
	}
	g := b.findGroup(groupId)
	if g == nil || g.DocumentType == generation.DocumentTypeSessionNote {
		return false
	}
	g.Files = append(g.Files, stampIds(files)...)
	return true
}

// AttachSessionFiles appends files to a session inside a session-note group.
func (b *Batch) AttachSessionFiles(groupId, sessionId uuid.UUID, files ...UploadedFile) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return false
	}
	s := b.findSession(groupId, sessionId)
	if s == nil {
		return false
	}
	s.Files = append(s.Files, stampIds(files)...)
	return true
}

// DetachFile removes a file by identity from a group or any of its
// sessions. Already-removed files are an idempotent no-op, not an error.
func (b *Batch) DetachFile(groupId, fileId uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}
	g := b.findGroup(groupId)
	if g == nil {
		return
	}
	g.Files = removeFile(g.Files, fileId)
	for _, s := range g.Sessions {
		s.Files = removeFile(s.Files, fileId)
	}
}

// AddSession appends an empty session to a session-note group.
func (b *Batch) AddSession(groupId uuid.UUID, dateOfService string) (uuid.UUID, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return uuid.Nil, false
	}
	g := b.findGroup(groupId)
	if g == nil || g.DocumentType != generation.DocumentTypeSessionNote {
		return uuid.Nil, false
	}
	s := newSession()
	s.DateOfService = dateOfService
	g.Sessions = append(g.Sessions, s)
	return s.Id, true
}

// SetSessionDate updates a session's free-text date of service.
func (b *Batch) SetSessionDate(groupId, sessionId uuid.UUID, dateOfService string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return false
	}
	s := b.findSession(groupId, sessionId)
	if s == nil {
		return false
	}
	s.DateOfService = dateOfService
	return true
}

// RemoveSession removes a session pre-run. Silent no-op while running.
func (b *Batch) RemoveSession(groupId, sessionId uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}
	g := b.findGroup(groupId)
	if g == nil {
		return
	}
	for i, s := range g.Sessions {
		if s.Id == sessionId {
			g.Sessions = append(g.Sessions[:i], g.Sessions[i+1:]...)
			return
		}
	}
}

// RequestStop asks the orchestrator to stop after the unit currently in
// flight. Advisory: checked only at unit boundaries.
func (b *Batch) RequestStop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopRequested = true
}

// Running reports whether a run is in progress.
func (b *Batch) Running() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

// --- unexported helpers (callers hold b.mu) ---

func (b *Batch) findGroup(id uuid.UUID) *ClientGroup {
	for _, g := range b.groups {
		if g.Id == id {
			return g
		}
	}
	return nil
}

func (b *Batch) findSession(groupId, sessionId uuid.UUID) *EncounterSession {
	g := b.findGroup(groupId)
	if g == nil {
		return nil
	}
	for _, s := range g.Sessions {
		if s.Id == sessionId {
			return s
		}
	}
	return nil
}

func (b *Batch) stopWanted() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stopRequested
}

func stampIds(files []UploadedFile) []UploadedFile {
	out := make([]UploadedFile, len(files))
	for i, f := range files {
		if f.Id == uuid.Nil {
			f.Id = uuid.New()
		}
		out[i] = f
	}
	return out
}

func removeFile(files []UploadedFile, id uuid.UUID) []UploadedFile {
	for i, f := range files {
		if f.Id == id {
			return append(files[:i], files[i+1:]...)
		}
	}
	return files
}
