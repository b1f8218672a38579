package config

import "time"

type Config struct {
	NATSURL  string `flag:"nats-url"`
	NATSInit bool   `flag:"nats-init"`
	LogLevel string `flag:"log-level"`

	ListenAddr  string `flag:"listen"`
	APIAddr     string `flag:"api-addr"`
	MetricsAddr string `flag:"metrics-addr"`

	DatabaseURL string `flag:"database-url"`
	EnrichURL   string `flag:"enrich-url"`

	// Settle delays are timing-fragile by nature, so they are configuration,
	// not constants. The defaults match the observed UI contract.
	ClickSettle   time.Duration `flag:"click-settle"`
	ConfirmSettle time.Duration `flag:"confirm-settle"`
	NetworkSettle time.Duration `flag:"network-settle"`
	PendingTTL    time.Duration `flag:"pending-ttl"`

	LikedCap      int `flag:"liked-cap"`
	InteractedCap int `flag:"interacted-cap"`
}
