package retriever

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-rag/internal/config"
	"paper-rag/internal/index"
	"paper-rag/internal/models"
	"paper-rag/internal/vectorstore"
)

// keywordEmbedder maps text onto fixed axes by keyword.
type keywordEmbedder struct {
	err   error
	calls int
}

var axes = []string{"bleu", "attention", "dataset"}

func (e *keywordEmbedder) vector(text string) []float32 {
	v := make([]float32, len(axes)+1)
	v[len(axes)] = 0.01
	for i, word := range axes {
		if strings.Contains(strings.ToLower(text), word) {
			v[i] = 1
		}
	}
	return v
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

func buildIndex(t *testing.T, emb *keywordEmbedder) *index.Index {
	t.Helper()
	chunks := []models.Chunk{
		{ID: "c0", Text: "We report BLEU on WMT."},
		{ID: "c1", Text: "Multi-head attention lets the model attend jointly."},
		{ID: "c2", Text: "The dataset has 4.5M sentence pairs."},
	}
	idx, err := index.Build(context.Background(), emb, chunks, func() (vectorstore.Store, error) {
		return vectorstore.New(config.VectorStoreMemory)
	})
	require.NoError(t, err)
	return idx
}

func TestRetrieve_BeforeIndexIsBuilt(t *testing.T) {
	emb := &keywordEmbedder{}
	_, err := New(emb, nil).Retrieve(context.Background(), "What is X?", 4)
	require.ErrorIs(t, err, models.ErrRetrievalUnavailable)
	assert.Zero(t, emb.calls)
}

func TestRetrieve_TopMatch(t *testing.T) {
	emb := &keywordEmbedder{}
	r := New(emb, buildIndex(t, emb))

	res, err := r.Retrieve(context.Background(), "How is attention computed?", 2)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, "c1", res.Chunks[0].Chunk.ID)
	assert.Equal(t, "How is attention computed?", res.Query)
	assert.Greater(t, res.Chunks[0].Score, res.Chunks[1].Score)
}

func TestRetrieve_InvalidArguments(t *testing.T) {
	emb := &keywordEmbedder{}
	r := New(emb, buildIndex(t, emb))

	_, err := r.Retrieve(context.Background(), "   ", 2)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = r.Retrieve(context.Background(), "attention", 0)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	emb := &keywordEmbedder{}
	idx := buildIndex(t, emb)
	emb.err = errors.Join(models.ErrEmbeddingUnavailable, errors.New("429"))

	_, err := New(emb, idx).Retrieve(context.Background(), "attention", 1)
	assert.ErrorIs(t, err, models.ErrEmbeddingUnavailable)
}
