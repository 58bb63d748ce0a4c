package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"paper-rag/internal/index"
	"paper-rag/internal/models"
)

// QueryEmbedder embeds a question. It must be the same embedding function
// that produced the index vectors.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever runs top-k similarity queries against an index.
type Retriever struct {
	embedder QueryEmbedder
	index    *index.Index
}

// New returns a Retriever over idx. idx may be nil when no documents have
// been ingested yet; Retrieve then reports ErrRetrievalUnavailable.
func New(embedder QueryEmbedder, idx *index.Index) *Retriever {
	return &Retriever{embedder: embedder, index: idx}
}

// Retrieve returns at most k chunks ordered by similarity to queryText.
func (r *Retriever) Retrieve(ctx context.Context, queryText string, k int) (models.RetrievalResult, error) {
	if strings.TrimSpace(queryText) == "" {
		return models.RetrievalResult{}, fmt.Errorf("%w: query is empty", models.ErrInvalidArgument)
	}
	if k <= 0 {
		return models.RetrievalResult{}, fmt.Errorf("%w: k must be positive, got %d", models.ErrInvalidArgument, k)
	}
	if r.index == nil {
		return models.RetrievalResult{}, models.ErrRetrievalUnavailable
	}

	vec, err := r.embedder.Embed(ctx, queryText)
	if err != nil {
		return models.RetrievalResult{}, err
	}
	result, err := r.index.Query(ctx, vec, k)
	if err != nil {
		return models.RetrievalResult{}, err
	}
	result.Query = queryText

	log.Debug().Str("query", queryText).Int("k", k).Int("hits", result.Len()).Msg("Retrieved chunks")
	return result, nil
}
