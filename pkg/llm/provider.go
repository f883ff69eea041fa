package llm

import (
	"context"
	"errors"
)

// ErrRateLimited is returned (wrapped) by providers when the upstream service
// signals quota exhaustion or rate limiting. Callers decide whether to retry.
var ErrRateLimited = errors.New("llm: rate limited")

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "model", "system"
	Content string
}

// Part is one piece of multimodal input. Either Text is set, or
// MimeType+Data carry a binary attachment (scanned document, audio, image).
type Part struct {
	Text     string
	MimeType string
	Data     []byte
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Provider defines the contract for any LLM backend
type Provider interface {
	// Generate sends a single text prompt to the model and returns the response
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// GenerateParts sends a mixed text/binary payload with a leading system
	// instruction. Providers that cannot handle a part's mime type return an error.
	GenerateParts(ctx context.Context, system string, parts []Part, options ...Option) (string, error)
}
