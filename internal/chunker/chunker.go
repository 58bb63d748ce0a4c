// Package chunker splits document text into fixed-size overlapping windows.
package chunker

import (
	"fmt"
	"strings"

	"paper-rag/internal/models"
)

// ValidateWindow checks the chunk window parameters.
func ValidateWindow(maxSize, overlap int) error {
	if maxSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrInvalidConfiguration, maxSize)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", models.ErrInvalidConfiguration, overlap)
	}
	if overlap >= maxSize {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", models.ErrInvalidConfiguration, overlap, maxSize)
	}
	return nil
}

// Split cuts the document text into windows of maxSize runes. Each window
// starts maxSize-overlap runes after the previous one; the last window may
// be shorter.
func Split(doc models.Document, maxSize, overlap int) ([]models.Chunk, error) {
	if err := ValidateWindow(maxSize, overlap); err != nil {
		return nil, err
	}
	if doc.Text == "" {
		return nil, fmt.Errorf("%w: document %q has no text", models.ErrInvalidArgument, doc.ID)
	}

	runes := []rune(doc.Text)
	step := maxSize - overlap
	var chunks []models.Chunk
	for start := 0; ; start += step {
		end := min(start+maxSize, len(runes))
		chunks = append(chunks, models.Chunk{
			ID:         fmt.Sprintf("%s#c%d", doc.ID, len(chunks)),
			DocumentID: doc.ID,
			Source:     doc.Source,
			Page:       doc.Page,
			Ordinal:    len(chunks),
			Start:      start,
			End:        end,
			Text:       string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

// SplitAll chunks every document in order.
func SplitAll(docs []models.Document, maxSize, overlap int) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, doc := range docs {
		c, err := Split(doc, maxSize, overlap)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c...)
	}
	return chunks, nil
}

// Reassemble rebuilds a document from its chunks: every chunk except the
// last loses its trailing overlap before concatenation.
func Reassemble(chunks []models.Chunk, overlap int) string {
	var content strings.Builder
	for i, chunk := range chunks {
		runes := []rune(chunk.Text)
		if i < len(chunks)-1 && len(runes) > overlap {
			runes = runes[:len(runes)-overlap]
		}
		content.WriteString(string(runes))
	}
	return content.String()
}
