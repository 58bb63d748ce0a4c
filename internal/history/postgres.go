package history

import (
	"context"

	"github.com/uptrace/bun"

	"paper-rag/internal/db"
	"paper-rag/internal/models"
)

type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(bunDB *bun.DB) *PostgresStore {
	return &PostgresStore{db: bunDB}
}

func (s *PostgresStore) Append(ctx context.Context, entry models.HistoryEntry) error {
	return db.StoreHistory(ctx, s.db, entry)
}

func (s *PostgresStore) List(ctx context.Context, sessionID string) ([]models.HistoryEntry, error) {
	return db.ListHistory(ctx, s.db, sessionID, 0)
}

func (s *PostgresStore) Clear(ctx context.Context, sessionID string) error {
	return db.DeleteHistory(ctx, s.db, sessionID)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
