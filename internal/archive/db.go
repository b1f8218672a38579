// Package archive mirrors the interaction log into Postgres for long-term
// retention. The key-value collections stay bounded; the archive does not.
package archive

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"feedtrack/internal/config"
	"feedtrack/internal/core"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Interaction is the archived form of a record. The unique index carries the
// same identity as the bounded collection, so replays upsert instead of
// duplicating.
type Interaction struct {
	ID        uint   `gorm:"primarykey"`
	PostID    string `gorm:"uniqueIndex:idx_post_kind;not null"`
	Kind      string `gorm:"uniqueIndex:idx_post_kind;not null"`
	Text      string
	Author    string
	Handle    string
	URL       string
	Timestamp string

	InteractedAt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func interactionFromRecord(r core.PostRecord) Interaction {
	return Interaction{
		PostID:       r.ID,
		Kind:         string(r.Kind),
		Text:         r.Text,
		Author:       r.Author,
		Handle:       r.Handle,
		URL:          r.URL,
		Timestamp:    r.Timestamp,
		InteractedAt: r.InteractedAt,
	}
}

type DB struct {
	Logger *slog.Logger
	Config *config.Config

	db *gorm.DB
}

func (db *DB) Init(_ context.Context) error {
	db.Logger = db.Logger.With("component", "archive.DB")

	gormDB, err := gorm.Open(postgres.Open(db.Config.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	db.db = gormDB

	return db.db.AutoMigrate(&Interaction{})
}

func (db *DB) Model(a any) *gorm.DB {
	return db.db.Model(a)
}

func (db *DB) EstimatedCount(tableName string) (int64, error) {
	var count int64
	return count, db.db.Raw(
		`SELECT reltuples::bigint AS count
				FROM pg_class
				WHERE relname = ?`, tableName,
	).Scan(&count).Error
}

func (db *DB) DB() (*sql.DB, error) {
	return db.db.DB()
}

func (db *DB) HealthCheck(_ context.Context) error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (db *DB) Shutdown(_ context.Context) error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}
