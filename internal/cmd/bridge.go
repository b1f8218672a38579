package cmd

import (
	"context"

	"feedtrack/internal/bridge"
	"feedtrack/internal/cmd/flags"
	"feedtrack/internal/metrics"
	"feedtrack/internal/nats"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"
)

var bridgeCmd = &cli.Command{
	Name:  "bridge",
	Usage: "Accept page instrumentation events over websocket, forward them to NATS JetStream",
	Flags: []cli.Flag{
		flags.NATSUrl,
		flags.InitNATS,
		flags.Listen,
		flags.MetricsAddr,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			pal.Provide(&bridge.Server{}),
			pal.Provide(&metrics.Server{}),
			nats.Provide(),
		)
	},
}
