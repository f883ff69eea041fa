package batch

import (
	"testing"

	"clinical-scribe-be/pkg/generation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkInvariants asserts the structural invariant after every document-type
// change: session-note groups have no direct files, other groups have no
// sessions.
func checkInvariants(t *testing.T, b *Batch) {
	t.Helper()
	for _, g := range b.Snapshot() {
		if g.DocumentType == generation.DocumentTypeSessionNote {
			assert.Empty(t, g.Files, "session-note group %s must have no direct files", g.Id)
		} else {
			assert.Empty(t, g.Sessions, "group %s of type %s must have no sessions", g.Id, g.DocumentType)
		}
	}
}

func TestAddGroupSessionNoteAutoCreatesSession(t *testing.T) {
	b := NewBatch()
	b.AddGroup(generation.DocumentTypeSessionNote)

	g := b.Snapshot()[0]
	require.Len(t, g.Sessions, 1)
	assert.Equal(t, StatusQueued, g.Sessions[0].Status)
	checkInvariants(t, b)
}

func TestSetGroupDocumentTypeInvariants(t *testing.T) {
	b := NewBatch()
	gid := b.AddGroup(generation.DocumentTypeIntakeSummary)
	require.True(t, b.AttachFiles(gid, file("intake.pdf")))

	// Into session-note: direct files cleared, one session synthesized.
	require.True(t, b.SetGroupDocumentType(gid, generation.DocumentTypeSessionNote))
	checkInvariants(t, b)
	g := b.Snapshot()[0]
	require.Len(t, g.Sessions, 1)

	// Attach to the session, then switch away: sessions cleared, no
	// confirmation step, data loss is expected.
	b.AttachSessionFiles(gid, g.Sessions[0].Id, file("session.pdf"))
	require.True(t, b.SetGroupDocumentType(gid, generation.DocumentTypeTreatmentPlan))
	checkInvariants(t, b)
	assert.Empty(t, b.Snapshot()[0].Sessions)

	// Back into session-note: a fresh empty session is synthesized again.
	require.True(t, b.SetGroupDocumentType(gid, generation.DocumentTypeSessionNote))
	checkInvariants(t, b)
	assert.Len(t, b.Snapshot()[0].Sessions, 1)
	assert.Empty(t, b.Snapshot()[0].Sessions[0].Files)
}

func TestAttachFilesNeverDeduplicates(t *testing.T) {
	b := NewBatch()
	gid := b.AddGroup(generation.DocumentTypeIntakeSummary)
	b.AttachFiles(gid, file("same.pdf"))
	b.AttachFiles(gid, file("same.pdf"))

	assert.Len(t, b.Snapshot()[0].Files, 2)
}

func TestAttachFilesRejectedForSessionNoteGroup(t *testing.T) {
	b := NewBatch()
	gid := b.AddGroup(generation.DocumentTypeSessionNote)
	assert.False(t, b.AttachFiles(gid, file("x.pdf")))
	checkInvariants(t, b)
}

func TestDetachFileIsIdempotent(t *testing.T) {
	b := NewBatch()
	gid := b.AddGroup(generation.DocumentTypeIntakeSummary)
	b.AttachFiles(gid, file("a.pdf"), file("b.pdf"))

	fid := b.Snapshot()[0].Files[0].Id
	b.DetachFile(gid, fid)
	assert.Len(t, b.Snapshot()[0].Files, 1)

	// Second detach of the same file: no-op, not an error.
	b.DetachFile(gid, fid)
	assert.Len(t, b.Snapshot()[0].Files, 1)
}

func TestRemoveGroupIsNoOpWhileRunning(t *testing.T) {
	b := NewBatch()
	gid := b.AddGroup(generation.DocumentTypeIntakeSummary)
	b.AttachFiles(gid, file("a.pdf"))

	b.mu.Lock()
	b.running = true
	b.mu.Unlock()

	b.RemoveGroup(gid)
	assert.Len(t, b.Snapshot(), 1, "removal during a run must be silently ignored")

	b.mu.Lock()
	b.running = false
	b.mu.Unlock()

	b.RemoveGroup(gid)
	assert.Empty(t, b.Snapshot())
}

func TestMutationsRejectedWhileRunning(t *testing.T) {
	b := NewBatch()
	gid := b.AddGroup(generation.DocumentTypeSessionNote)
	sid := firstSessionId(b, gid)

	b.mu.Lock()
	b.running = true
	b.mu.Unlock()

	assert.False(t, b.SetGroupDocumentType(gid, generation.DocumentTypeIntakeSummary))
	assert.False(t, b.SetGroupHints(gid, "C-1", ""))
	assert.False(t, b.AttachSessionFiles(gid, sid, file("x.pdf")))
	_, ok := b.AddSession(gid, "")
	assert.False(t, ok)
	assert.False(t, b.SetSessionDate(gid, sid, "2026-02-01"))
}
