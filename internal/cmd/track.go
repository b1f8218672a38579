package cmd

import (
	"context"

	"feedtrack/internal/classify"
	"feedtrack/internal/cmd/flags"
	"feedtrack/internal/enrich"
	"feedtrack/internal/extract"
	"feedtrack/internal/metrics"
	"feedtrack/internal/mutwatch"
	"feedtrack/internal/nats"
	"feedtrack/internal/netwatch"
	"feedtrack/internal/pending"
	"feedtrack/internal/records"
	"feedtrack/internal/tracker"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"
)

var trackCmd = &cli.Command{
	Name:  "track",
	Usage: "Consume host events from NATS JetStream, detect interactions, store records",
	Flags: []cli.Flag{
		flags.NATSUrl,
		flags.InitNATS,
		flags.MetricsAddr,
		flags.EnrichURL,
		flags.ClickSettle,
		flags.ConfirmSettle,
		flags.NetworkSettle,
		flags.PendingTTL,
		flags.LikedCap,
		flags.InteractedCap,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			pal.Provide(&extract.Extractor{}),
			pal.Provide(&classify.Classifier{}),
			pal.Provide(&pending.Slot{}),
			pal.Provide(&netwatch.Watcher{}),
			pal.Provide(&mutwatch.Watcher{}),
			pal.Provide(&records.Store{}),
			pal.Provide(&enrich.Enricher{}),
			pal.Provide(&tracker.Tracker{}),
			pal.Provide(&metrics.Server{}),
			pal.Provide(&metrics.Collector{}),
			nats.Provide(),
		)
	},
}
