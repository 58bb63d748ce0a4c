package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"paper-rag/internal/helper"
	"paper-rag/internal/models"
)

const (
	defaultBatchSize = 16
	callAttempts     = 2
)

// Service guards an embeddings.Embedder with a per-call timeout, one retry,
// batching and vector shape checks. Index building and query embedding
// must go through the same Service so that both share one vector space.
type Service struct {
	embedder  embeddings.Embedder
	timeout   time.Duration
	batchSize int
	dimension int
}

// Option configures a Service
type Option func(*Service)

// WithTimeout bounds every call to the embedder
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithBatchSize sets how many texts are sent per EmbedDocuments call
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithDimension makes the service reject vectors of any other length
func WithDimension(n int) Option {
	return func(s *Service) { s.dimension = n }
}

func NewService(embedder embeddings.Embedder, opts ...Option) *Service {
	s := &Service{embedder: embedder, batchSize: defaultBatchSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed embeds a single text, typically a user question.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := helper.Retry(ctx, callAttempts, s.timeout, func(ctx context.Context) error {
		var err error
		vec, err = s.embedder.EmbedQuery(ctx, text)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}
	if err := s.checkDimension(vec, len(vec)); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch embeds texts in batches and returns one vector per text in
// input order. All vectors share one dimension.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		batch := texts[start:end]

		var out [][]float32
		err := helper.Retry(ctx, callAttempts, s.timeout, func(ctx context.Context) error {
			var err error
			out, err = s.embedder.EmbedDocuments(ctx, batch)
			return err
		})
		if err != nil {
			return nil, classify(err)
		}
		if len(out) != len(batch) {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts", models.ErrEmbeddingUnavailable, len(out), len(batch))
		}
		vectors = append(vectors, out...)
		log.Debug().Int("batch_start", start).Int("batch_size", len(batch)).Msg("Embedded batch")
	}

	if len(vectors) == 0 {
		return vectors, nil
	}
	want := len(vectors[0])
	for _, vec := range vectors {
		if err := s.checkDimension(vec, want); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

func (s *Service) checkDimension(vec []float32, want int) error {
	if s.dimension > 0 {
		want = s.dimension
	}
	if len(vec) == 0 || len(vec) != want {
		return fmt.Errorf("%w: dimension mismatch: got %d, want %d", models.ErrEmbeddingUnavailable, len(vec), want)
	}
	return nil
}

func classify(err error) error {
	if helper.IsTimeout(err) {
		return fmt.Errorf("%w: embedding: %w", models.ErrTimeoutExceeded, err)
	}
	return fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
}
