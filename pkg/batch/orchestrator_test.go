package batch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"clinical-scribe-be/pkg/generation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator records invocation order and replays canned results.
type scriptedGenerator struct {
	mu       sync.Mutex
	calls    []generation.Input
	inFlight bool
	overlap  bool
	result   func(n int, in generation.Input) (string, error)
	onCall   func(n int) // fired at call start, before result
}

func (g *scriptedGenerator) Generate(ctx context.Context, in generation.Input) (string, error) {
	g.mu.Lock()
	if g.inFlight {
		g.overlap = true
	}
	g.inFlight = true
	n := len(g.calls)
	g.calls = append(g.calls, in)
	g.mu.Unlock()

	if g.onCall != nil {
		g.onCall(n)
	}

	var text string
	var err error
	if g.result != nil {
		text, err = g.result(n, in)
	} else {
		text = "PATIENT_NAME: Jane Doe\n\ngenerated document"
	}

	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
	return text, err
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// fakePersister returns a fixed name and optional error.
type fakePersister struct {
	mu    sync.Mutex
	calls int
	name  string
	err   error
}

func (p *fakePersister) Persist(ctx context.Context, docType generation.DocumentType, text string) (PersistResult, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return PersistResult{PatientName: p.name}, p.err
}

func file(name string) UploadedFile {
	return UploadedFile{FileName: name, MimeType: "application/pdf", Data: []byte("%PDF-fake")}
}

func runBatch(t *testing.T, o *Orchestrator, b *Batch) int {
	t.Helper()
	completions := 0
	err := o.Run(context.Background(), b, func() { completions++ })
	require.NoError(t, err)
	return completions
}

func TestRunSingleGroupCompletes(t *testing.T) {
	// Scenario: intake-summary group with one file, generation yields a
	// PATIENT_NAME label, persistence resolves the patient.
	gen := &scriptedGenerator{}
	per := &fakePersister{name: "Jane Doe"}
	o := NewOrchestrator(gen, per, nil)

	b := NewBatch()
	gid := b.AddGroup(generation.DocumentTypeIntakeSummary)
	require.True(t, b.AttachFiles(gid, file("intake.pdf")))

	completions := runBatch(t, o, b)

	assert.Equal(t, 1, completions)
	assert.Equal(t, 1, gen.callCount())
	assert.Equal(t, 1, per.calls)

	g := b.Snapshot()[0]
	assert.Equal(t, StatusCompleted, g.Status)
	assert.Equal(t, "Jane Doe", g.ResultPatientName)
	assert.Empty(t, g.LastError)
}

func TestRunOrderingIsStrictAndSequential(t *testing.T) {
	gen := &scriptedGenerator{}
	per := &fakePersister{name: "Jane Doe"}
	o := NewOrchestrator(gen, per, nil)

	b := NewBatch()
	var want []string
	for _, hint := range []string{"A", "B", "C"} {
		gid := b.AddGroup(generation.DocumentTypeIntakeSummary)
		b.SetGroupHints(gid, hint, "")
		b.AttachFiles(gid, file(hint+".pdf"))
		want = append(want, hint)
	}

	runBatch(t, o, b)

	var got []string
	for _, in := range gen.calls {
		got = append(got, in.ClientIDHint)
	}
	assert.Equal(t, want, got)
	assert.False(t, gen.overlap, "generation calls must never overlap in time")
}

func TestRunGenerationErrorFailsUnitButNotBatch(t *testing.T) {
	gen := &scriptedGenerator{
		result: func(n int, in generation.Input) (string, error) {
			if n == 0 {
				return "", errors.New("gemini error: status 500")
			}
			return "PATIENT_NAME: Jane Doe\n\nok", nil
		},
	}
	per := &fakePersister{name: "Jane Doe"}
	o := NewOrchestrator(gen, per, nil)

	b := NewBatch()
	g1 := b.AddGroup(generation.DocumentTypeIntakeSummary)
	b.AttachFiles(g1, file("one.pdf"))
	g2 := b.AddGroup(generation.DocumentTypeTreatmentPlan)
	b.AttachFiles(g2, file("two.pdf"))

	completions := runBatch(t, o, b)
	assert.Equal(t, 1, completions)

	views := b.Snapshot()
	assert.Equal(t, StatusError, views[0].Status)
	assert.Equal(t, "gemini error: status 500", views[0].LastError)
	assert.Equal(t, StatusCompleted, views[1].Status)
}

func TestRunPersistenceFailureStillCompletes(t *testing.T) {
	gen := &scriptedGenerator{}
	per := &fakePersister{name: "Jane Doe", err: errors.New("db connection refused")}
	o := NewOrchestrator(gen, per, nil)

	b := NewBatch()
	gid := b.AddGroup(generation.DocumentTypeIntakeSummary)
	b.AttachFiles(gid, file("intake.pdf"))

	runBatch(t, o, b)

	g := b.Snapshot()[0]
	assert.Equal(t, StatusCompleted, g.Status)
	assert.Empty(t, g.LastError)
}

func TestRunZeroFileGroupIsSkippedSilently(t *testing.T) {
	gen := &scriptedGenerator{}
	per := &fakePersister{}
	o := NewOrchestrator(gen, per, nil)

	b := NewBatch()
	b.AddGroup(generation.DocumentTypeIntakeSummary) // no files

	completions := runBatch(t, o, b)
	assert.Equal(t, 1, completions)
	assert.Equal(t, 0, gen.callCount())
	assert.Equal(t, StatusQueued, b.Snapshot()[0].Status)
}

func TestRunIdempotentSkipOfCompletedUnits(t *testing.T) {
	gen := &scriptedGenerator{}
	per := &fakePersister{name: "Jane Doe"}
	o := NewOrchestrator(gen, per, nil)

	b := NewBatch()
	g1 := b.AddGroup(generation.DocumentTypeIntakeSummary)
	b.AttachFiles(g1, file("one.pdf"))
	g2 := b.AddGroup(generation.DocumentTypeSessionNote)
	sid, ok := b.AddSession(g2, "2026-01-05")
	require.True(t, ok)
	b.AttachSessionFiles(g2, sid, file("session.pdf"))

	runBatch(t, o, b)
	require.Equal(t, 2, gen.callCount())
	before := b.Snapshot()

	// Second run over the same, fully-completed group set.
	completions := runBatch(t, o, b)
	assert.Equal(t, 1, completions)
	assert.Equal(t, 2, gen.callCount(), "no generation calls on re-run")
	assert.Equal(t, before, b.Snapshot(), "status set unchanged")
}

func TestRunSessionGroupSkipsEmptySessions(t *testing.T) {
	gen := &scriptedGenerator{}
	per := &fakePersister{name: "Jane Doe"}
	o := NewOrchestrator(gen, per, nil)

	b := NewBatch()
	gid := b.AddGroup(generation.DocumentTypeSessionNote)
	// The auto-created first session stays empty; the second gets files.
	sid, _ := b.AddSession(gid, "2026-01-12")
	b.AttachSessionFiles(gid, sid, file("session.pdf"))

	runBatch(t, o, b)

	assert.Equal(t, 1, gen.callCount())
	g := b.Snapshot()[0]
	assert.Equal(t, StatusCompleted, g.Status)
	assert.Equal(t, StatusQueued, g.Sessions[0].Status, "empty session remains queued")
	assert.Equal(t, StatusCompleted, g.Sessions[1].Status)
	assert.Equal(t, "Jane Doe", g.Sessions[1].ResultPatientName)
}

func TestRunSessionErrorMarksGroupErrored(t *testing.T) {
	gen := &scriptedGenerator{
		result: func(n int, in generation.Input) (string, error) {
			if n == 1 {
				return "", errors.New("generation failed")
			}
			return "PATIENT_NAME: Jane Doe\n\nok", nil
		},
	}
	per := &fakePersister{name: "Jane Doe"}
	o := NewOrchestrator(gen, per, nil)

	b := NewBatch()
	gid := b.AddGroup(generation.DocumentTypeSessionNote)
	s1 := firstSessionId(b, gid)
	b.AttachSessionFiles(gid, s1, file("a.pdf"))
	s2, _ := b.AddSession(gid, "")
	b.AttachSessionFiles(gid, s2, file("b.pdf"))

	runBatch(t, o, b)

	g := b.Snapshot()[0]
	assert.Equal(t, StatusError, g.Status)
	assert.Equal(t, StatusCompleted, g.Sessions[0].Status, "succeeded session keeps its own status")
	assert.Equal(t, StatusError, g.Sessions[1].Status)
}

func TestRunStopAfterCurrentUnit(t *testing.T) {
	// Stop requested while unit 2 is in flight: unit 2 finishes, unit 3 is
	// never started, exactly 2 units touched.
	b := NewBatch()
	gen := &scriptedGenerator{}
	gen.onCall = func(n int) {
		if n == 1 {
			b.RequestStop()
		}
	}
	per := &fakePersister{name: "Jane Doe"}
	o := NewOrchestrator(gen, per, nil)

	for i := 0; i < 3; i++ {
		gid := b.AddGroup(generation.DocumentTypeIntakeSummary)
		b.AttachFiles(gid, file("f.pdf"))
	}

	completions := runBatch(t, o, b)
	assert.Equal(t, 1, completions, "completion notification fires exactly once even on early stop")
	assert.Equal(t, 2, gen.callCount())

	views := b.Snapshot()
	assert.Equal(t, StatusCompleted, views[0].Status)
	assert.Equal(t, StatusCompleted, views[1].Status, "in-flight unit always finishes")
	assert.Equal(t, StatusQueued, views[2].Status, "unit after stop is never started")
}

func TestRunStopAfterLastFilefulSessionStillCompletesGroup(t *testing.T) {
	// Stop requested while the only fileful session is in flight. The
	// remaining session is empty, so no eligible work was skipped and the
	// group completes despite the stop.
	b := NewBatch()
	gen := &scriptedGenerator{}
	gen.onCall = func(n int) {
		if n == 0 {
			b.RequestStop()
		}
	}
	per := &fakePersister{name: "Jane Doe"}
	o := NewOrchestrator(gen, per, nil)

	gid := b.AddGroup(generation.DocumentTypeSessionNote)
	s1 := firstSessionId(b, gid)
	b.AttachSessionFiles(gid, s1, file("session.pdf"))
	b.AddSession(gid, "") // trailing empty session

	runBatch(t, o, b)

	g := b.Snapshot()[0]
	assert.Equal(t, StatusCompleted, g.Status)
	assert.Empty(t, g.LastError)
	assert.Equal(t, StatusCompleted, g.Sessions[0].Status)
	assert.Equal(t, StatusQueued, g.Sessions[1].Status, "empty session remains queued")
	assert.Equal(t, "Jane Doe", g.ResultPatientName)
}

func TestRunRetriesErroredUnitsOnNewRun(t *testing.T) {
	attempt := 0
	gen := &scriptedGenerator{
		result: func(n int, in generation.Input) (string, error) {
			attempt++
			if attempt == 1 {
				return "", errors.New("transient failure")
			}
			return "PATIENT_NAME: Jane Doe\n\nok", nil
		},
	}
	per := &fakePersister{name: "Jane Doe"}
	o := NewOrchestrator(gen, per, nil)

	b := NewBatch()
	gid := b.AddGroup(generation.DocumentTypeIntakeSummary)
	b.AttachFiles(gid, file("intake.pdf"))

	runBatch(t, o, b)
	assert.Equal(t, StatusError, b.Snapshot()[0].Status)

	runBatch(t, o, b)
	assert.Equal(t, StatusCompleted, b.Snapshot()[0].Status)
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from   UnitStatus
		ev     Event
		want   UnitStatus
		wantOk bool
	}{
		{StatusQueued, EventStart, StatusProcessing, true},
		{StatusProcessing, EventSucceed, StatusCompleted, true},
		{StatusProcessing, EventFail, StatusError, true},
		{StatusQueued, EventSucceed, StatusQueued, false},
		{StatusCompleted, EventStart, StatusCompleted, false},
		{StatusError, EventStart, StatusError, false},
		{StatusProcessing, EventStart, StatusProcessing, false},
	}
	for _, tt := range tests {
		got, ok := Transition(tt.from, tt.ev)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.wantOk, ok)
	}
}

func firstSessionId(b *Batch, gid uuid.UUID) uuid.UUID {
	for _, g := range b.Snapshot() {
		if g.Id == gid {
			return g.Sessions[0].Id
		}
	}
	return uuid.Nil
}
