package vectorstore

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/vec/search"

	"paper-rag/internal/config"
	"paper-rag/internal/models"
)

func record(ordinal int, vec ...float32) models.EmbeddingRecord {
	return models.EmbeddingRecord{
		Chunk: models.Chunk{
			ID:      fmt.Sprintf("doc#p1#c%d", ordinal),
			Source:  "doc.pdf",
			Page:    1,
			Ordinal: ordinal,
			Text:    fmt.Sprintf("chunk %d", ordinal),
		},
		Vector: vec,
	}
}

func kinds() []string {
	return []string{config.VectorStoreMemory, config.VectorStoreChromem}
}

func newStore(t *testing.T, kind string, records ...models.EmbeddingRecord) Store {
	t.Helper()
	s, err := New(kind)
	require.NoError(t, err)
	require.NoError(t, s.Add(context.Background(), records))
	return s
}

func TestStore_SelfSimilarityRanksFirst(t *testing.T) {
	for _, kind := range kinds() {
		t.Run(kind, func(t *testing.T) {
			s := newStore(t, kind,
				record(0, 1, 0, 0),
				record(1, 0.6, 0.8, 0),
				record(2, 0, 0, 1),
			)
			got, err := s.Query(context.Background(), []float32{0.6, 0.8, 0}, 3)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, "doc#p1#c1", got[0].Chunk.ID)
			assert.InDelta(t, 1.0, got[0].Score, 1e-5)
			assert.InDelta(t, 0.6, got[1].Score, 1e-5)
			assert.InDelta(t, 0.0, got[2].Score, 1e-5)
		})
	}
}

func TestStore_KLargerThanCountReturnsAll(t *testing.T) {
	for _, kind := range kinds() {
		t.Run(kind, func(t *testing.T) {
			s := newStore(t, kind, record(0, 1, 0), record(1, 0, 1))
			got, err := s.Query(context.Background(), []float32{1, 1}, 10)
			require.NoError(t, err)
			assert.Len(t, got, 2)
			assert.Equal(t, 2, s.Count())
		})
	}
}

func TestStore_TiesKeepInsertionOrder(t *testing.T) {
	for _, kind := range kinds() {
		t.Run(kind, func(t *testing.T) {
			s := newStore(t, kind,
				record(0, 0, 1),
				record(1, 1, 0),
				record(2, 2, 0),
				record(3, 3, 0),
			)
			got, err := s.Query(context.Background(), []float32{1, 0}, 2)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, 1, got[0].Chunk.Ordinal)
			assert.Equal(t, 2, got[1].Chunk.Ordinal)
		})
	}
}

func TestStore_DimensionMismatch(t *testing.T) {
	for _, kind := range kinds() {
		t.Run(kind, func(t *testing.T) {
			s := newStore(t, kind, record(0, 1, 0))
			_, err := s.Query(context.Background(), []float32{1, 0, 0}, 1)
			assert.Error(t, err)

			err = s.Add(context.Background(), []models.EmbeddingRecord{record(1, 1, 2, 3)})
			assert.Error(t, err)
			assert.Equal(t, 1, s.Count())
		})
	}
}

func TestStore_ZeroVectorScoresZero(t *testing.T) {
	for _, kind := range kinds() {
		t.Run(kind, func(t *testing.T) {
			s := newStore(t, kind, record(0, 1, 0), record(1, 0, 0), record(2, 0.5, 0.5))
			got, err := s.Query(context.Background(), []float32{0, 1}, 3)
			require.NoError(t, err)
			require.Len(t, got, 3)

			assert.Equal(t, 2, got[0].Chunk.Ordinal)
			assert.InDelta(t, 0.7071, got[0].Score, 1e-4)
			assert.Equal(t, 0, got[1].Chunk.Ordinal)
			assert.Equal(t, 1, got[2].Chunk.Ordinal)
			for _, sc := range got[1:] {
				assert.False(t, math.IsNaN(sc.Score))
				assert.InDelta(t, 0.0, sc.Score, 1e-6)
			}
		})
	}
}

func TestCosineDistance(t *testing.T) {
	a := []float32{3, 4}
	b := []float32{4, 3}
	am := search.Float32s(a).Magnitude()
	bm := search.Float32s(b).Magnitude()
	assert.InDelta(t, 5.0, am, 1e-6)
	assert.InDelta(t, 1-24.0/25.0, cosineDistance(a, am, b, bm), 1e-6)
	assert.InDelta(t, 0.0, cosineDistance(a, am, a, am), 1e-6)
	assert.Equal(t, 0.0, cosine(a, am, []float32{0, 0}, 0))
}

func TestStore_EmptyQueryResult(t *testing.T) {
	s := NewMemoryStore()
	got, err := s.Query(context.Background(), []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New("faiss")
	assert.ErrorIs(t, err, models.ErrInvalidConfiguration)
}
