package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"docqa/internal/domain"
)

// Generator sends an assembled prompt to the language model and returns its
// response unmodified.
type Generator struct {
	llm    domain.Completer
	logger zerolog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the generator logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New creates a generator backed by llm.
func New(llm domain.Completer, opts ...Option) *Generator {
	g := &Generator{llm: llm, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate makes a single model call. Failures are wrapped with
// domain.ErrGenerationUnavailable and never retried.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	answer, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
	g.logger.Debug().
		Int("prompt_length", len(prompt)).
		Int("answer_length", len(answer)).
		Dur("took", time.Since(start)).
		Msg("generated answer")
	return answer, nil
}
