package models

import "time"

// Document is the text of one page of an uploaded file.
type Document struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Page   int    `json:"page"`
	Text   string `json:"-"`
}

// Chunk is a window of a Document's text. Start and End are rune offsets.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	Page       int    `json:"page"`
	Ordinal    int    `json:"ordinal"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Text       string `json:"text"`
}

// EmbeddingRecord pairs a chunk with its embedding vector.
type EmbeddingRecord struct {
	Chunk  Chunk
	Vector []float32
}

// ScoredChunk is a chunk with its similarity to a query vector.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// RetrievalResult holds chunks ordered by descending score.
type RetrievalResult struct {
	Query  string        `json:"query"`
	Chunks []ScoredChunk `json:"chunks"`
}

// Len returns the number of retrieved chunks.
func (r RetrievalResult) Len() int { return len(r.Chunks) }

// Answer is the generated text and the retrieval result that grounded it.
type Answer struct {
	Question      string          `json:"question"`
	Text          string          `json:"text"`
	Sources       RetrievalResult `json:"sources"`
	ContextChunks int             `json:"context_chunks"`
}

// HistoryEntry is one question/answer exchange within a session.
type HistoryEntry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	ElapsedMS int64     `json:"elapsed_ms"`
	CreatedAt time.Time `json:"created_at"`
}
