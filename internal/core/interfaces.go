package core

import (
	"context"

	"github.com/zhulik/pips"
)

// KeyValueStore is the persisted collection backend. Implementations map
// their own not-found error to ErrKeyNotFound.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Watch yields the new value after every write to key until ctx is done.
	Watch(ctx context.Context, key string) (<-chan []byte, error)
}

// HostEventSource delivers the instrumentation's event stream, in order.
type HostEventSource interface {
	Consume(ctx context.Context) (<-chan pips.D[*HostEvent], error)
}

// Notifier shows a best-effort, auto-dismissing message to the user. Failures
// are the caller's to ignore.
type Notifier interface {
	Show(ctx context.Context, message string) error
}

// Sink is the single record-this-interaction entry point. All detection
// paths feed one sink; deduplication happens at storage time, by key.
type Sink func(ctx context.Context, record PostRecord)
