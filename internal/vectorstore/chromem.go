package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"paper-rag/internal/helper"
	"paper-rag/internal/models"
)

const ordinalKey = "ordinal"

var errPrecomputed = errors.New("vectorstore: embeddings are precomputed, chromem must not embed")

// ChromemStore keeps records in an in-memory chromem-go collection.
// chromem does not order equal scores, so every query fetches all
// documents and ranks them here.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	records    []models.EmbeddingRecord
	dim        int
}

// NewChromemStore creates a fresh in-memory database with one collection.
func NewChromemStore() (*ChromemStore, error) {
	name, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	db := chromem.NewDB()
	c, err := db.GetOrCreateCollection(name, nil, func(ctx context.Context, text string) ([]float32, error) {
		return nil, errPrecomputed
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return &ChromemStore{db: db, collection: c}, nil
}

func (m *ChromemStore) Add(ctx context.Context, records []models.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		if m.dim == 0 {
			m.dim = len(r.Vector)
		}
		if len(r.Vector) != m.dim {
			return fmt.Errorf("vectorstore: inconsistent vector dims %d vs %d", len(r.Vector), m.dim)
		}
		ordinal := len(m.records) + i
		docs[i] = chromem.Document{
			ID:      strconv.Itoa(ordinal),
			Content: r.Chunk.Text,
			Metadata: map[string]string{
				ordinalKey: strconv.Itoa(ordinal),
				"source":   r.Chunk.Source,
				"page":     strconv.Itoa(r.Chunk.Page),
			},
			// chromem normalizes embeddings in place
			Embedding: append([]float32(nil), r.Vector...),
		}
	}

	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	m.records = append(m.records, records...)
	log.Debug().Str("collection", m.collection.Name).Int("count", m.collection.Count()).Msg("Added documents to chromem")
	return nil
}

func (m *ChromemStore) Query(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error) {
	if len(m.records) == 0 {
		return nil, nil
	}
	if len(vector) != m.dim {
		return nil, fmt.Errorf("vectorstore: query dim %d != store dim %d", len(vector), m.dim)
	}

	results, err := m.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: append([]float32(nil), vector...),
		NResults:       m.collection.Count(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	items := make([]scored, 0, len(results))
	for _, res := range results {
		ordinal, err := strconv.Atoi(res.Metadata[ordinalKey])
		if err != nil || ordinal < 0 || ordinal >= len(m.records) {
			return nil, fmt.Errorf("vectorstore: result %q has no valid ordinal", res.ID)
		}
		score := float64(res.Similarity)
		// chromem normalizes zero vectors to NaN
		if math.IsNaN(score) {
			score = 0
		}
		items = append(items, scored{ordinal: ordinal, score: score})
	}

	top := rank(items, k)
	out := make([]models.ScoredChunk, len(top))
	for i, s := range top {
		out[i] = models.ScoredChunk{Chunk: m.records[s.ordinal].Chunk, Score: s.score}
	}
	return out, nil
}

func (m *ChromemStore) Count() int {
	return len(m.records)
}
