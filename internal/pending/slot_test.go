package pending_test

import (
	"testing"
	"time"

	"feedtrack/internal/config"
	"feedtrack/internal/core"
	"feedtrack/internal/pending"

	"github.com/stretchr/testify/require"
)

func newSlot(t *testing.T, ttl time.Duration) *pending.Slot {
	t.Helper()

	slot := &pending.Slot{Config: &config.Config{PendingTTL: ttl}}
	require.NoError(t, slot.Init(t.Context()))
	return slot
}

func TestSlotBeginConsume(t *testing.T) {
	t.Parallel()

	slot := newSlot(t, 0)
	slot.Begin(core.PostRecord{ID: "1", Kind: core.KindRepost})

	draft, ok := slot.Consume()
	require.True(t, ok)
	require.Equal(t, "1", draft.ID)
}

func TestSlotConsumeEmpty(t *testing.T) {
	t.Parallel()

	slot := newSlot(t, 0)

	_, ok := slot.Consume()
	require.False(t, ok)
}

func TestSlotConsumeClears(t *testing.T) {
	t.Parallel()

	slot := newSlot(t, 0)
	slot.Begin(core.PostRecord{ID: "1"})

	_, ok := slot.Consume()
	require.True(t, ok)

	_, ok = slot.Consume()
	require.False(t, ok)
}

func TestSlotOverwrite(t *testing.T) {
	t.Parallel()

	slot := newSlot(t, 0)
	slot.Begin(core.PostRecord{ID: "1"})
	slot.Begin(core.PostRecord{ID: "2"})

	draft, ok := slot.Consume()
	require.True(t, ok)
	require.Equal(t, "2", draft.ID)
}

func TestSlotTTL(t *testing.T) {
	t.Parallel()

	slot := newSlot(t, 10*time.Millisecond)
	slot.Begin(core.PostRecord{ID: "1"})

	time.Sleep(30 * time.Millisecond)

	_, ok := slot.Consume()
	require.False(t, ok)
}
