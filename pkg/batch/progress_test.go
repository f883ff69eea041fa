package batch

import (
	"testing"

	"clinical-scribe-be/pkg/generation"

	"github.com/stretchr/testify/assert"
)

func TestProgressEmptyBatch(t *testing.T) {
	b := NewBatch()
	p := b.Progress()
	assert.Equal(t, 0, p.TotalReportUnits)
	assert.Equal(t, float64(0), p.PercentComplete, "zero eligible groups must not divide by zero")
}

func TestProgressCountsOnlyFilefulUnits(t *testing.T) {
	b := NewBatch()

	// Eligible plain group.
	g1 := b.AddGroup(generation.DocumentTypeIntakeSummary)
	b.AttachFiles(g1, file("a.pdf"))

	// Plain group with no files: excluded everywhere.
	b.AddGroup(generation.DocumentTypeTreatmentPlan)

	// Session-note group: one fileful session, one empty.
	g3 := b.AddGroup(generation.DocumentTypeSessionNote)
	s1 := firstSessionId(b, g3)
	b.AttachSessionFiles(g3, s1, file("s1.pdf"))
	b.AddSession(g3, "2026-03-01")

	p := b.Progress()
	assert.Equal(t, 2, p.TotalReportUnits)
	assert.Equal(t, 2, p.QueuedUnits)
	assert.Equal(t, 0, p.CompletedGroups)
	assert.Equal(t, float64(0), p.PercentComplete)
}

func TestProgressPercentComplete(t *testing.T) {
	b := NewBatch()
	g1 := b.AddGroup(generation.DocumentTypeIntakeSummary)
	b.AttachFiles(g1, file("a.pdf"))
	g2 := b.AddGroup(generation.DocumentTypeIntakeSummary)
	b.AttachFiles(g2, file("b.pdf"))

	b.mu.Lock()
	b.groups[0].Status = StatusCompleted
	b.groups[1].Status = StatusError
	b.mu.Unlock()

	p := b.Progress()
	assert.Equal(t, 1, p.CompletedGroups)
	assert.Equal(t, 1, p.ErroredGroups)
	assert.Equal(t, float64(50), p.PercentComplete)
	assert.Equal(t, 0, p.QueuedUnits)
}
