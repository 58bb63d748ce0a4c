package vectorstore

import (
	"context"
	"fmt"
	"math"

	"github.com/viant/vec/search"

	"paper-rag/internal/models"
)

// MemoryStore scans every record and scores it with cosine similarity.
// Magnitudes are computed once when records are added.
type MemoryStore struct {
	records []models.EmbeddingRecord
	mags    []float32
	dim     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Add(ctx context.Context, records []models.EmbeddingRecord) error {
	for _, r := range records {
		if m.dim == 0 {
			m.dim = len(r.Vector)
		}
		if len(r.Vector) != m.dim {
			return fmt.Errorf("vectorstore: inconsistent vector dims %d vs %d", len(r.Vector), m.dim)
		}
	}
	for _, r := range records {
		m.records = append(m.records, r)
		m.mags = append(m.mags, search.Float32s(r.Vector).Magnitude())
	}
	return nil
}

func (m *MemoryStore) Query(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error) {
	if len(m.records) == 0 {
		return nil, nil
	}
	if len(vector) != m.dim {
		return nil, fmt.Errorf("vectorstore: query dim %d != store dim %d", len(vector), m.dim)
	}

	qm := search.Float32s(vector).Magnitude()
	items := make([]scored, len(m.records))
	for i, r := range m.records {
		items[i] = scored{ordinal: i, score: cosine(vector, qm, r.Vector, m.mags[i])}
	}

	top := rank(items, k)
	out := make([]models.ScoredChunk, len(top))
	for i, s := range top {
		out[i] = models.ScoredChunk{Chunk: m.records[s.ordinal].Chunk, Score: s.score}
	}
	return out, nil
}

func (m *MemoryStore) Count() int {
	return len(m.records)
}

// cosine returns 0 when either vector has no magnitude.
func cosine(a []float32, am float32, b []float32, bm float32) float64 {
	if am == 0 || bm == 0 {
		return 0
	}
	sim := 1 - float64(cosineDistance(a, am, b, bm))
	if math.IsNaN(sim) {
		return 0
	}
	return sim
}
