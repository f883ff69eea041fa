package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinical-scribe-be/pkg/llm"
)

// ErrRateLimited means the service kept rate-limiting after the full retry
// budget was spent.
var ErrRateLimited = errors.New("generation: rate limited after retries")

// ErrNoContent means the service was reachable but returned no usable text.
var ErrNoContent = errors.New("generation: service returned no content")

const (
	maxRetries       = 3
	initialRetryWait = 1500 * time.Millisecond
)

// Input is one generation request: either Text or Files, never both empty.
type Input struct {
	Text  string
	Files []llm.Part // binary attachments, order preserved

	DocumentType DocumentType
	ClientIDHint string
	DateHint     string // date of service, free text
}

// Adapter turns raw intake/session material into generated document text.
// It performs no local validation of file content; the service is trusted
// to reject malformed input.
type Adapter struct {
	provider    llm.Provider
	initialWait time.Duration // overridable in tests
}

func NewAdapter(provider llm.Provider) *Adapter {
	return &Adapter{provider: provider, initialWait: initialRetryWait}
}

// Generate runs one generation call with bounded exponential-backoff retry on
// rate-limit signals (3 retries, 1.5s doubling). Any other error propagates
// immediately.
func (a *Adapter) Generate(ctx context.Context, in Input) (string, error) {
	parts := a.buildParts(in)
	system := SystemPrompt(in.DocumentType)

	wait := a.initialWait
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			wait *= 2
		}

		text, err := a.provider.GenerateParts(ctx, system, parts)
		if err != nil {
			if isRateLimit(err) {
				lastErr = err
				continue
			}
			return "", err
		}

		text = StripFences(text)
		if strings.TrimSpace(text) == "" {
			return "", ErrNoContent
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: %v", ErrRateLimited, lastErr)
}

func (a *Adapter) buildParts(in Input) []llm.Part {
	parts := make([]llm.Part, 0, len(in.Files)+2)

	prompt := UserPrompt(in.DocumentType)
	if in.ClientIDHint != "" {
		prompt += fmt.Sprintf("\n\nKnown client identifier: %s", in.ClientIDHint)
	}
	if in.DateHint != "" {
		prompt += fmt.Sprintf("\nDate of service: %s", in.DateHint)
	}
	parts = append(parts, llm.Part{Text: prompt})

	if in.Text != "" {
		parts = append(parts, llm.Part{Text: in.Text})
	}
	parts = append(parts, in.Files...)
	return parts
}

// isRateLimit recognizes rate-limit-shaped errors: the provider sentinel,
// plus substring fallbacks for providers that only surface raw HTTP errors.
func isRateLimit(err error) bool {
	if errors.Is(err, llm.ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "resource exhausted")
}

// StripFences removes a fenced code-block wrapper if the service echoed one
// around the whole document (```markdown ... ``` or plain ```).
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	// Drop the opening fence line (which may carry a language tag)
	idx := strings.Index(trimmed, "\n")
	if idx < 0 {
		return s
	}
	body := trimmed[idx+1:]
	end := strings.LastIndex(body, "```")
	if end < 0 {
		return s
	}
	return strings.TrimSpace(body[:end])
}
