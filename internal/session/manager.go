// Package session holds the per-user state of the pipeline: the current
// index, the question history, and the lock that serializes access to them.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"paper-rag/internal/helper"
	"paper-rag/internal/history"
	"paper-rag/internal/index"
	"paper-rag/internal/rag"
	"paper-rag/internal/retriever"
)

var ErrSessionNotFound = errors.New("session not found")

// Embedder is the single embedding function used both to index chunks and
// to embed questions.
type Embedder interface {
	index.BatchEmbedder
	retriever.QueryEmbedder
}

type Options struct {
	ChunkSize       int
	ChunkOverlap    int
	MaxContextChars int
	VectorStore     string
}

// Manager creates and tracks sessions. Sessions share the collaborators but
// nothing else.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	embedder  Embedder
	assembler *rag.Assembler
	history   history.Store
	opts      Options
}

func NewManager(embedder Embedder, assembler *rag.Assembler, hist history.Store, opts Options) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		embedder:  embedder,
		assembler: assembler,
		history:   hist,
		opts:      opts,
	}
}

func (m *Manager) Create(ctx context.Context) (*Session, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	s := &Session{ID: id, manager: m}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Info().Str("session", id).Msg("Session created")
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close tears a session down. It waits for any in-flight operation on the
// session, then drops its index and clears its history.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = nil
	s.sources = nil
	s.closed = true

	log.Info().Str("session", id).Msg("Session closed")
	return m.history.Clear(ctx, id)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
