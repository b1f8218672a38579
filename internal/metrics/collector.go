package metrics

import (
	"context"
	"log/slog"
	"time"

	"feedtrack/internal/records"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var collectionSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "feedtrack_collection_size",
	Help: "Current record count of a collection.",
}, []string{"collection"})

type Collector struct {
	Logger *slog.Logger
	Store  *records.Store
}

func (c *Collector) Init(_ context.Context) error {
	c.Logger = c.Logger.With("component", "metrics.Collector")
	return nil
}

func (c *Collector) Run(ctx context.Context) error {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, col := range []records.Collection{c.Store.Liked, c.Store.Interacted} {
				posts, err := c.Store.List(ctx, col)
				if err != nil {
					c.Logger.Error("failed to read collection", "collection", col.Name, "error", err)
					continue
				}
				collectionSize.WithLabelValues(col.Name).Set(float64(len(posts)))
			}
		}
	}
}
