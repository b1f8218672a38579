package archive

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"feedtrack/internal/core"
	"feedtrack/internal/nats"
	"feedtrack/internal/records"
	"feedtrack/pkg/async"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm/clause"
)

const (
	batchSize    = 10
	batchTimeout = 1 * time.Second
)

var interactionsArchived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "feedtrack_interactions_archived_total",
	Help: "The total number of interaction rows upserted into the archive",
})

// Archiver follows writes to the interacted collection and upserts every
// record it sees into Postgres. It reads whole collection snapshots, so a
// missed update is repaired by the next one.
type Archiver struct {
	Logger *slog.Logger
	NATS   *nats.NATS
	Store  *records.Store
	DB     *DB

	// kv defaults to the NATS bucket; tests swap it.
	kv core.KeyValueStore
}

func (a *Archiver) Init(_ context.Context) error {
	a.Logger = a.Logger.With("component", "archive.Archiver")

	if a.kv == nil && a.NATS != nil {
		a.kv = a.NATS
	}

	return nil
}

func (a *Archiver) Run(ctx context.Context) error {
	updates, err := a.kv.Watch(ctx, a.Store.Interacted.Name)
	if err != nil {
		return err
	}

	a.Logger.Info("archiving interactions")

	for batch := range async.Batcher(ctx, updates, batchSize, batchTimeout) {
		// Snapshots within a batch supersede each other; only the last
		// one matters.
		if err := a.archiveSnapshot(batch[len(batch)-1]); err != nil {
			a.Logger.Error("failed to archive snapshot", "error", err)
		}
	}

	return nil
}

func (a *Archiver) archiveSnapshot(value []byte) error {
	var posts []core.PostRecord
	if err := json.Unmarshal(value, &posts); err != nil {
		return err
	}

	if len(posts) == 0 {
		return nil
	}

	rows := make([]Interaction, 0, len(posts))
	for _, post := range posts {
		rows = append(rows, interactionFromRecord(post))
	}

	err := a.DB.Model(&Interaction{}).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "kind"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
	if err != nil {
		return err
	}

	interactionsArchived.Add(float64(len(rows)))
	return nil
}
