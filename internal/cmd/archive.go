package cmd

import (
	"context"

	"feedtrack/internal/archive"
	"feedtrack/internal/cmd/flags"
	"feedtrack/internal/metrics"
	"feedtrack/internal/nats"
	"feedtrack/internal/records"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"
)

var archiveCmd = &cli.Command{
	Name:  "archive",
	Usage: "Mirror the interaction log into Postgres",
	Flags: []cli.Flag{
		flags.NATSUrl,
		flags.MetricsAddr,
		flags.DatabaseURL,
		flags.LikedCap,
		flags.InteractedCap,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			pal.Provide(&archive.DB{}),
			pal.Provide(&archive.Archiver{}),
			pal.Provide(&records.Store{}),
			pal.Provide(&metrics.Server{}),
			nats.Provide(),
		)
	},
}
