package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"paper-rag/internal/chunker"
	"paper-rag/internal/helper"
	"paper-rag/internal/index"
	"paper-rag/internal/models"
	"paper-rag/internal/retriever"
	"paper-rag/internal/vectorstore"
)

// Session is one user's working set. All operations on a session are
// serialized; a rebuild blocks questions until it finishes.
type Session struct {
	ID string

	manager *Manager
	mu      sync.Mutex
	index   *index.Index
	sources []string
	closed  bool
}

type IngestResult struct {
	Sources   []string `json:"sources"`
	Documents int      `json:"documents"`
	Chunks    int      `json:"chunks"`
}

type AskResult struct {
	Answer  models.Answer `json:"answer"`
	Elapsed time.Duration `json:"elapsed"`
}

// Ingest chunks docs and replaces the session index with a new one built
// from them. The previous index stays in place when the build fails.
func (s *Session) Ingest(ctx context.Context, docs []models.Document) (IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return IngestResult{}, ErrSessionNotFound
	}

	opts := s.manager.opts
	chunks, err := chunker.SplitAll(docs, opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return IngestResult{}, err
	}

	idx, err := index.Build(ctx, s.manager.embedder, chunks, func() (vectorstore.Store, error) {
		return vectorstore.New(opts.VectorStore)
	})
	if err != nil {
		log.Warn().Err(err).Str("session", s.ID).Msg("Index rebuild failed, keeping previous index")
		return IngestResult{}, err
	}

	s.index = idx
	s.sources = distinctSources(docs)

	log.Info().Str("session", s.ID).Int("documents", len(docs)).Int("chunks", len(chunks)).Msg("Index rebuilt")
	return IngestResult{Sources: s.sources, Documents: len(docs), Chunks: len(chunks)}, nil
}

// Ask answers question from the k most similar chunks and records the
// exchange. A failure to record history does not fail the question.
func (s *Session) Ask(ctx context.Context, question string, k int) (AskResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return AskResult{}, ErrSessionNotFound
	}

	start := time.Now()
	result, err := retriever.New(s.manager.embedder, s.index).Retrieve(ctx, question, k)
	if err != nil {
		return AskResult{}, err
	}
	answer, err := s.manager.assembler.Assemble(ctx, question, result, s.manager.opts.MaxContextChars)
	if err != nil {
		return AskResult{}, err
	}
	elapsed := time.Since(start)

	if err := s.record(ctx, answer, elapsed); err != nil {
		log.Warn().Err(err).Str("session", s.ID).Msg("Failed to record history")
	}
	return AskResult{Answer: answer, Elapsed: elapsed}, nil
}

func (s *Session) record(ctx context.Context, answer models.Answer, elapsed time.Duration) error {
	id, err := helper.GenerateUUID()
	if err != nil {
		return err
	}
	return s.manager.history.Append(ctx, models.HistoryEntry{
		ID:        id,
		SessionID: s.ID,
		Question:  answer.Question,
		Answer:    answer.Text,
		ElapsedMS: elapsed.Milliseconds(),
		CreatedAt: time.Now().UTC(),
	})
}

// History returns the session's exchanges, newest first.
func (s *Session) History(ctx context.Context) ([]models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionNotFound
	}
	return s.manager.history.List(ctx, s.ID)
}

func (s *Session) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionNotFound
	}
	if err := s.manager.history.Clear(ctx, s.ID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Sources lists the files behind the current index.
func (s *Session) Sources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sources...)
}

func distinctSources(docs []models.Document) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range docs {
		if !seen[d.Source] {
			seen[d.Source] = true
			out = append(out, d.Source)
		}
	}
	return out
}
