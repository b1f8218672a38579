package cmd

import (
	"context"

	"feedtrack/internal/api"
	"feedtrack/internal/cmd/flags"
	"feedtrack/internal/metrics"
	"feedtrack/internal/nats"
	"feedtrack/internal/records"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "Serve the record collections over HTTP",
	Flags: []cli.Flag{
		flags.NATSUrl,
		flags.APIAddr,
		flags.MetricsAddr,
		flags.LikedCap,
		flags.InteractedCap,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			pal.Provide(&records.Store{}),
			pal.Provide(&api.Server{}),
			pal.Provide(&metrics.Server{}),
			nats.Provide(),
		)
	},
}
