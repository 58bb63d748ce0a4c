// Package index builds an immutable embedding index over a set of chunks
// and answers top-k similarity queries against it.
package index

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"paper-rag/internal/models"
	"paper-rag/internal/vectorstore"
)

// BatchEmbedder turns chunk texts into vectors, one per text, in order.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// StoreFactory returns an empty vector store.
type StoreFactory func() (vectorstore.Store, error)

// Index owns the embedding records of one document set. It is never
// patched; a new document set means a new Index.
type Index struct {
	store vectorstore.Store
	dim   int
}

// Build embeds every chunk and loads the vectors into a fresh store. Either
// the whole set is indexed or Build returns an error and no Index.
func Build(ctx context.Context, embedder BatchEmbedder, chunks []models.Chunk, newStore StoreFactory) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", models.ErrInvalidArgument)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", models.ErrEmbeddingUnavailable, len(vectors), len(chunks))
	}

	dim := len(vectors[0])
	records := make([]models.EmbeddingRecord, len(chunks))
	for i, vec := range vectors {
		if len(vec) == 0 || len(vec) != dim {
			return nil, fmt.Errorf("%w: dimension mismatch at chunk %s: got %d, want %d", models.ErrEmbeddingUnavailable, chunks[i].ID, len(vec), dim)
		}
		records[i] = models.EmbeddingRecord{Chunk: chunks[i], Vector: vec}
	}

	store, err := newStore()
	if err != nil {
		return nil, err
	}
	if err := store.Add(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}

	log.Info().Int("chunks", len(records)).Int("dimension", dim).Msg("Built embedding index")
	return &Index{store: store, dim: dim}, nil
}

// Query returns the k chunks most similar to vector. k larger than the
// index returns every chunk.
func (i *Index) Query(ctx context.Context, vector []float32, k int) (models.RetrievalResult, error) {
	if k <= 0 {
		return models.RetrievalResult{}, fmt.Errorf("%w: k must be positive, got %d", models.ErrInvalidArgument, k)
	}
	if len(vector) != i.dim {
		return models.RetrievalResult{}, fmt.Errorf("%w: query dimension %d does not match index dimension %d", models.ErrEmbeddingUnavailable, len(vector), i.dim)
	}
	chunks, err := i.store.Query(ctx, vector, k)
	if err != nil {
		return models.RetrievalResult{}, err
	}
	return models.RetrievalResult{Chunks: chunks}, nil
}

// Len returns the number of indexed chunks.
func (i *Index) Len() int {
	return i.store.Count()
}

// Dimension returns the vector length of the index.
func (i *Index) Dimension() int {
	return i.dim
}
