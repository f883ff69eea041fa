package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinical-scribe-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider replays a scripted sequence of responses.
type fakeProvider struct {
	calls     int
	responses []fakeResponse
}

type fakeResponse struct {
	text string
	err  error
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.GenerateParts(ctx, "", []llm.Part{{Text: prompt}}, opts...)
}

func (f *fakeProvider) GenerateParts(ctx context.Context, system string, parts []llm.Part, opts ...llm.Option) (string, error) {
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i].text, f.responses[i].err
}

func newTestAdapter(p llm.Provider) *Adapter {
	a := NewAdapter(p)
	a.initialWait = time.Millisecond
	return a
}

func TestGenerateRetryBound(t *testing.T) {
	// A provider that always rate-limits is called exactly 4 times:
	// 1 initial + 3 retries.
	p := &fakeProvider{responses: []fakeResponse{
		{err: llm.ErrRateLimited},
	}}
	a := newTestAdapter(p)

	_, err := a.Generate(context.Background(), Input{Text: "notes", DocumentType: DocumentTypeIntakeSummary})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, 4, p.calls)
}

func TestGenerateRecoversAfterRateLimit(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{err: llm.ErrRateLimited},
		{err: errors.New("gemini: status 429: rate limit")},
		{text: "PATIENT_NAME: Jane Doe\n\ncontent"},
	}}
	a := newTestAdapter(p)

	out, err := a.Generate(context.Background(), Input{Text: "notes", DocumentType: DocumentTypeSessionNote})
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Doe")
	assert.Equal(t, 3, p.calls)
}

func TestGenerateNonRateLimitErrorPropagatesImmediately(t *testing.T) {
	boom := errors.New("gemini error: status 500")
	p := &fakeProvider{responses: []fakeResponse{{err: boom}}}
	a := newTestAdapter(p)

	_, err := a.Generate(context.Background(), Input{Text: "notes", DocumentType: DocumentTypeIntakeSummary})
	require.Error(t, err)
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, p.calls)
}

func TestGenerateEmptyOutputIsNoContent(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{{text: "   \n"}}}
	a := newTestAdapter(p)

	_, err := a.Generate(context.Background(), Input{Text: "notes", DocumentType: DocumentTypeTreatmentPlan})
	assert.True(t, errors.Is(err, ErrNoContent))
}

func TestGenerateStripsFences(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{text: "```markdown\nPATIENT_NAME: Jane Doe\n\n# Intake Summary\n```"},
	}}
	a := newTestAdapter(p)

	out, err := a.Generate(context.Background(), Input{Text: "notes", DocumentType: DocumentTypeIntakeSummary})
	require.NoError(t, err)
	assert.Equal(t, "PATIENT_NAME: Jane Doe\n\n# Intake Summary", out)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", "plain text", "plain text"},
		{"plain fences", "```\nbody\n```", "body"},
		{"language tag", "```markdown\nbody\n```", "body"},
		{"unterminated", "```markdown\nbody", "```markdown\nbody"},
		{"inner fences preserved", "```\nouter\n```go\ncode\n```\n```", "outer\n```go\ncode\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDocumentTypeValid(t *testing.T) {
	assert.True(t, DocumentTypeIntakeSummary.Valid())
	assert.True(t, DocumentTypeTreatmentPlan.Valid())
	assert.True(t, DocumentTypeSessionNote.Valid())
	assert.False(t, DocumentType("preceptor").Valid())
	assert.False(t, DocumentType("").Valid())
}
