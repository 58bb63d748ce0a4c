package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"paper-rag/internal/helper"
	"paper-rag/internal/models"
)

const generateAttempts = 2

// Generator produces an answer from an instruction, a context block and a
// question. It is backed by a hosted language model.
type Generator interface {
	Generate(ctx context.Context, instruction, contextBlock, question string) (string, error)
}

// Assembler turns a retrieval result into a bounded context and asks the
// generator for a grounded answer.
type Assembler struct {
	generator Generator
	timeout   time.Duration
}

func NewAssembler(generator Generator, timeout time.Duration) *Assembler {
	return &Assembler{generator: generator, timeout: timeout}
}

// Assemble builds the context from result and generates the answer. A
// failed generation is retried once with the same context.
func (a *Assembler) Assemble(ctx context.Context, question string, result models.RetrievalResult, maxContextChars int) (models.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return models.Answer{}, fmt.Errorf("%w: question is empty", models.ErrInvalidArgument)
	}
	if maxContextChars <= 0 {
		return models.Answer{}, fmt.Errorf("%w: max context chars must be positive, got %d", models.ErrInvalidArgument, maxContextChars)
	}

	contextBlock, used := BuildContext(result, maxContextChars)
	log.Debug().Int("retrieved", result.Len()).Int("used", used).Int("context_chars", len([]rune(contextBlock))).Msg("Assembled context")

	var text string
	err := helper.Retry(ctx, generateAttempts, a.timeout, func(ctx context.Context) error {
		var err error
		text, err = a.generator.Generate(ctx, models.AnswerInstruction, contextBlock, question)
		return err
	})
	if err != nil {
		if helper.IsTimeout(err) {
			return models.Answer{}, fmt.Errorf("%w: generation: %w", models.ErrTimeoutExceeded, err)
		}
		return models.Answer{}, fmt.Errorf("%w: %w", models.ErrGenerationUnavailable, err)
	}

	return models.Answer{
		Question:      question,
		Text:          text,
		Sources:       result,
		ContextChunks: used,
	}, nil
}

// BuildContext joins chunk texts in result order until the next chunk would
// push the total past maxChars runes. The first chunk is cut to maxChars
// when it alone is too long, so a non-empty result never yields an empty
// context. It returns the context and the number of chunks used.
func BuildContext(result models.RetrievalResult, maxChars int) (string, int) {
	var parts []string
	total := 0
	for i, sc := range result.Chunks {
		runes := []rune(sc.Chunk.Text)
		if total+len(runes) > maxChars {
			if i == 0 {
				parts = append(parts, string(runes[:maxChars]))
			}
			break
		}
		parts = append(parts, sc.Chunk.Text)
		total += len(runes)
	}
	return strings.Join(parts, models.ContextSeparator), len(parts)
}
