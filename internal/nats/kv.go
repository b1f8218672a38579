package nats

import (
	"context"
	"errors"
	"fmt"

	"feedtrack/internal/core"

	"github.com/nats-io/nats.go/jetstream"
)

// The JetStream bucket doubles as the engine's core.KeyValueStore.

func (n *NATS) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := n.KV.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, core.ErrKeyNotFound
		}
		return nil, err
	}

	return entry.Value(), nil
}

func (n *NATS) Put(ctx context.Context, key string, value []byte) error {
	_, err := n.KV.Put(ctx, key, value)
	if err != nil {
		return fmt.Errorf("failed to store key %s: %w", key, err)
	}
	return nil
}

func (n *NATS) Delete(ctx context.Context, key string) error {
	return n.KV.Delete(ctx, key)
}

// Watch yields the value written by every subsequent update to key. The
// initial replay marker and deletes are skipped.
func (n *NATS) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	watcher, err := n.KV.Watch(ctx, key, jetstream.UpdatesOnly())
	if err != nil {
		return nil, err
	}

	ch := make(chan []byte, 16)

	go func() {
		defer close(ch)
		defer watcher.Stop() //nolint:errcheck

		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				if entry == nil || entry.Operation() != jetstream.KeyValuePut {
					continue
				}

				select {
				case ch <- entry.Value():
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
