// Package generator turns a prompt into free text. The rest of the service
// treats the backend as opaque: only the decoded continuation matters.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGenerationFailed is returned when the backend cannot produce text.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrInvalidConfig is returned by constructors.
	ErrInvalidConfig = errors.New("invalid generator config")
)

// Generator produces a continuation for prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options are the sampling knobs forwarded to the backend.
type Options struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

func DefaultOptions() Options {
	return Options{MaxTokens: 100, Temperature: 0.8, TopP: 0.95}
}

const (
	BackendOpenAI = "openai"
	BackendEcho   = "echo"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	BaseURL string
	APIKey  string
	Model   string
	Options Options
	// EchoPrompt prepends the prompt to the continuation, matching decoders
	// that return prompt and completion as one sequence.
	EchoPrompt bool
	TimeoutMs  int
}

// New builds the backend named by cfg.Backend.
func New(cfg Config) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendOpenAI:
		return NewOpenAI(cfg)
	case BackendEcho:
		return Echo{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
	}
}

// Echo returns the prompt unchanged. Offline runs resolve shapes directly
// from the user's description.
type Echo struct{}

func (Echo) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return prompt, nil
}
