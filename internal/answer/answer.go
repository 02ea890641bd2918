// Package answer assembles grounded prompts and obtains generated answers.
package answer

import (
	"context"
	"errors"
	"strings"

	"docquery/internal/domain"
)

// Synthesizer turns retrieval results and a question into a single grounded
// generation call. No re-ranking, no citations, no retries.
type Synthesizer struct {
	generator domain.Generator
}

// New creates a Synthesizer over the given generation capability.
func New(generator domain.Generator) *Synthesizer {
	return &Synthesizer{generator: generator}
}

// Answer builds the grounding prompt and performs one generation round trip,
// returning the capability's raw text. A failed call or empty completion
// yields a GenerationError that records the question and whether any
// retrieval context was present.
func (s *Synthesizer) Answer(ctx context.Context, question string, retrieved []domain.ScoredSegment, params domain.GenerationParams) (string, error) {
	prompt := BuildPrompt(question, retrieved)
	out, err := s.generator.Generate(ctx, prompt, params)
	if err != nil {
		return "", &domain.GenerationError{Question: question, ContextPresent: len(retrieved) > 0, Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return "", &domain.GenerationError{Question: question, ContextPresent: len(retrieved) > 0, Err: errors.New("empty completion")}
	}
	return out, nil
}

// BuildPrompt deterministically serializes the retrieved segments, in
// retrieval order, followed by the literal question. Generation quality is
// sensitive to context order, so the order is part of the contract.
func BuildPrompt(question string, retrieved []domain.ScoredSegment) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the context below.\n\nContext:\n")
	for _, seg := range retrieved {
		b.WriteString(seg.Content)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
