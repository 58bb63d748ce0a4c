// Package history records the question/answer exchanges of a session.
package history

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"paper-rag/internal/config"
	"paper-rag/internal/db"
	"paper-rag/internal/models"
)

// Store keeps history entries per session. List returns newest first.
type Store interface {
	Append(ctx context.Context, entry models.HistoryEntry) error
	List(ctx context.Context, sessionID string) ([]models.HistoryEntry, error)
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

// New builds the backend selected in cfg. Database schemas are created on
// first use.
func New(ctx context.Context, cfg *config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", config.HistoryMemory:
		return NewMemoryStore(), nil
	case config.HistoryRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		return NewRedisStore(client, cfg.Redis.TTL), nil
	case config.HistoryPostgres:
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		bunDB := db.NewDB(sqldb, cfg.Database.Debug)
		if err := db.InitDB(ctx, bunDB); err != nil {
			bunDB.Close()
			return nil, fmt.Errorf("init history schema: %w", err)
		}
		return NewPostgresStore(bunDB), nil
	default:
		return nil, fmt.Errorf("%w: unknown history backend %q", models.ErrInvalidConfiguration, cfg.Backend)
	}
}
