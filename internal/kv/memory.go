// Package kv provides an in-memory core.KeyValueStore, used by tests and by
// anything that wants the engine without a NATS deployment.
package kv

import (
	"context"
	"sync"

	"feedtrack/internal/core"
)

type Memory struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[string][]chan []byte
}

func NewMemory() *Memory {
	return &Memory{
		data:     map[string][]byte{},
		watchers: map[string][]chan []byte{},
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	if !ok {
		return nil, core.ErrKeyNotFound
	}
	return value, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value

	for _, ch := range m.watchers[key] {
		select {
		case ch <- value:
		default:
		}
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *Memory) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	ch := make(chan []byte, 16)

	m.mu.Lock()
	m.watchers[key] = append(m.watchers[key], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()

		m.mu.Lock()
		defer m.mu.Unlock()
		watchers := m.watchers[key]
		for i, c := range watchers {
			if c == ch {
				m.watchers[key] = append(watchers[:i], watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}
