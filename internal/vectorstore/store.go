// Package vectorstore holds embedding records and answers cosine
// similarity queries over them.
package vectorstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"paper-rag/internal/config"
	"paper-rag/internal/models"
)

// Store is an in-process vector store. Records keep the order they were
// added in; that order breaks score ties.
type Store interface {
	// Add appends records to the store.
	Add(ctx context.Context, records []models.EmbeddingRecord) error

	// Query returns up to k records by descending cosine similarity.
	// k larger than Count returns every record.
	Query(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error)

	// Count returns the number of stored records.
	Count() int
}

// New returns an empty store of the given kind.
func New(kind string) (Store, error) {
	switch kind {
	case config.VectorStoreMemory, "":
		return NewMemoryStore(), nil
	case config.VectorStoreChromem:
		return NewChromemStore()
	default:
		return nil, fmt.Errorf("%w: unknown vector store %q", models.ErrInvalidConfiguration, kind)
	}
}

type scored struct {
	ordinal int
	score   float64
}

// rank orders by score, highest first, then by insertion ordinal, and keeps
// at most k entries.
func rank(items []scored, k int) []scored {
	slices.SortFunc(items, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.ordinal, b.ordinal)
	})
	if k > 0 && k < len(items) {
		items = items[:k]
	}
	return items
}
