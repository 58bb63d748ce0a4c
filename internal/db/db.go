package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"paper-rag/internal/config"
	"paper-rag/internal/models"
)

type HistoryEntry struct {
	bun.BaseModel `bun:"table:history_entries,alias:h"`
	ID            string    `bun:"id,pk"`
	Seq           int64     `bun:"seq,autoincrement"`
	SessionID     string    `bun:"session_id,notnull"`
	Question      string    `bun:"question,notnull"`
	Answer        string    `bun:"answer,notnull"`
	ElapsedMS     int64     `bun:"elapsed_ms,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func fromModel(e models.HistoryEntry) *HistoryEntry {
	return &HistoryEntry{
		ID:        e.ID,
		SessionID: e.SessionID,
		Question:  e.Question,
		Answer:    e.Answer,
		ElapsedMS: e.ElapsedMS,
		CreatedAt: e.CreatedAt,
	}
}

func (h HistoryEntry) toModel() models.HistoryEntry {
	return models.HistoryEntry{
		ID:        h.ID,
		SessionID: h.SessionID,
		Question:  h.Question,
		Answer:    h.Answer,
		ElapsedMS: h.ElapsedMS,
		CreatedAt: h.CreatedAt,
	}
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens a lazy connection pool. The "pq" driver goes through
// database/sql, anything else uses bun's pgdriver.
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: database url is empty", models.ErrInvalidConfiguration)
	}
	if cfg.Driver == "pq" {
		return sql.Open("postgres", cfg.URL)
	}
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.URL))), nil
}

func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*HistoryEntry)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	_, err := db.NewCreateIndex().
		Model((*HistoryEntry)(nil)).
		Index("history_entries_session_idx").
		IfNotExists().
		Column("session_id", "seq").
		Exec(ctx)
	return err
}

func StoreHistory(ctx context.Context, db *bun.DB, entry models.HistoryEntry) error {
	_, err := insertHistoryQuery(db, entry).Exec(ctx)
	return err
}

// ListHistory returns the entries of a session, newest first by insertion
// sequence. A limit of zero returns all of them.
func ListHistory(ctx context.Context, db *bun.DB, sessionID string, limit int) ([]models.HistoryEntry, error) {
	var rows []HistoryEntry
	if err := listHistoryQuery(db, &rows, sessionID, limit).Scan(ctx); err != nil {
		return nil, err
	}
	entries := make([]models.HistoryEntry, len(rows))
	for i, row := range rows {
		entries[i] = row.toModel()
	}
	return entries, nil
}

func DeleteHistory(ctx context.Context, db *bun.DB, sessionID string) error {
	_, err := deleteHistoryQuery(db, sessionID).Exec(ctx)
	return err
}

func insertHistoryQuery(db *bun.DB, entry models.HistoryEntry) *bun.InsertQuery {
	return db.NewInsert().Model(fromModel(entry))
}

func listHistoryQuery(db *bun.DB, rows *[]HistoryEntry, sessionID string, limit int) *bun.SelectQuery {
	q := db.NewSelect().
		Model(rows).
		Where("session_id = ?", sessionID).
		OrderExpr("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

func deleteHistoryQuery(db *bun.DB, sessionID string) *bun.DeleteQuery {
	return db.NewDelete().Model((*HistoryEntry)(nil)).Where("session_id = ?", sessionID)
}
