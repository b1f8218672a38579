package flags

import (
	"fmt"
	"slices"
	"time"

	libnats "github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

var NATSUrl = &cli.StringFlag{
	Name:    "nats-url",
	Aliases: []string{"n"},
	Usage:   "The URL of the NATS server",
	Value:   libnats.DefaultURL,
	Sources: cli.EnvVars("NATS_URL"),
}

var InitNATS = &cli.BoolFlag{
	Name:        "nats-init",
	Aliases:     []string{"i"},
	Usage:       "Initialize the NATS server: create streams, consumers, etc.",
	DefaultText: "false",
	Value:       false,
	Sources:     cli.EnvVars("NATS_INIT"),
}

// TODO: extract custom EnumFlag
var LogLevel = &cli.StringFlag{
	Name:    "log-level",
	Aliases: []string{"l"},
	Usage:   "The level of the logs",
	Value:   "info",
	Validator: func(value string) error {
		if !slices.Contains(validLogLevels, value) {
			return fmt.Errorf("invalid log level: %s, allowed values are: %s", value, validLogLevels)
		}
		return nil
	},
	Sources: cli.EnvVars("LOG_LEVEL"),
}

var Listen = &cli.StringFlag{
	Name:    "listen",
	Usage:   "The address the bridge websocket server listens on",
	Value:   ":8787",
	Sources: cli.EnvVars("LISTEN"),
}

var APIAddr = &cli.StringFlag{
	Name:    "api-addr",
	Usage:   "The address the records API listens on",
	Value:   ":8888",
	Sources: cli.EnvVars("API_ADDR"),
}

var MetricsAddr = &cli.StringFlag{
	Name:    "metrics-addr",
	Usage:   "The address the metrics server listens on",
	Value:   ":8080",
	Sources: cli.EnvVars("METRICS_ADDR"),
}

var DatabaseURL = &cli.StringFlag{
	Name:     "database-url",
	Usage:    "The Postgres DSN for the interaction archive",
	Required: true,
	Sources:  cli.EnvVars("DATABASE_URL"),
}

var EnrichURL = &cli.StringFlag{
	Name:    "enrich-url",
	Usage:   "The base URL of the post lookup service, empty disables enrichment",
	Sources: cli.EnvVars("ENRICH_URL"),
}

var ClickSettle = &cli.DurationFlag{
	Name:    "click-settle",
	Usage:   "How long to wait after a toggle click before extracting",
	Value:   100 * time.Millisecond,
	Sources: cli.EnvVars("CLICK_SETTLE"),
}

var ConfirmSettle = &cli.DurationFlag{
	Name:    "confirm-settle",
	Usage:   "How long to wait after a repost confirmation before recording",
	Value:   500 * time.Millisecond,
	Sources: cli.EnvVars("CONFIRM_SETTLE"),
}

var NetworkSettle = &cli.DurationFlag{
	Name:    "network-settle",
	Usage:   "How long to wait after a repost network call before extracting",
	Value:   1 * time.Second,
	Sources: cli.EnvVars("NETWORK_SETTLE"),
}

var PendingTTL = &cli.DurationFlag{
	Name:    "pending-ttl",
	Usage:   "How long a repost initiation stays correlatable, 0 means forever",
	Value:   10 * time.Second,
	Sources: cli.EnvVars("PENDING_TTL"),
}

var LikedCap = &cli.IntFlag{
	Name:    "liked-cap",
	Usage:   "Maximum size of the liked posts collection",
	Value:   1000,
	Sources: cli.EnvVars("LIKED_CAP"),
}

var InteractedCap = &cli.IntFlag{
	Name:    "interacted-cap",
	Usage:   "Maximum size of the interacted posts collection",
	Value:   1000,
	Sources: cli.EnvVars("INTERACTED_CAP"),
}

var Kind = &cli.StringFlag{
	Name:    "kind",
	Aliases: []string{"k"},
	Usage:   "Filter records by interaction kind",
}

var Query = &cli.StringFlag{
	Name:    "query",
	Aliases: []string{"q"},
	Usage:   "Filter records by a substring over text, author and handle",
}

var Verbose = &cli.BoolFlag{
	Name:    "verbose",
	Aliases: []string{"v"},
	Usage:   "Pretty-print full records instead of one line per record",
}

var Output = &cli.StringFlag{
	Name:    "output",
	Aliases: []string{"o"},
	Usage:   "Write exported records to a file instead of stdout",
}

var Liked = &cli.BoolFlag{
	Name:  "liked",
	Usage: "Operate on the liked posts collection instead of the interaction log",
}
