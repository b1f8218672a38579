// Package pending bridges the click that starts a two-phase flow and the
// later confirmation click. A single slot, last-initiated-wins: the flow is
// expected to complete within seconds, so at most one initiation is tracked.
package pending

import (
	"context"
	"sync"
	"time"

	"feedtrack/internal/config"
	"feedtrack/internal/core"
)

type Slot struct {
	Config *config.Config

	mu    sync.Mutex
	draft *core.PostRecord
	setAt time.Time
	ttl   time.Duration
}

func (s *Slot) Init(_ context.Context) error {
	s.ttl = s.Config.PendingTTL
	return nil
}

// Begin overwrites the slot with a fresh draft. A draft that was never
// confirmed is silently lost.
func (s *Slot) Begin(draft core.PostRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = &draft
	s.setAt = time.Now()
}

// Consume reads and clears the slot. Returns false when the slot is empty or
// the draft outlived the TTL; a TTL of zero never expires.
func (s *Slot) Consume() (core.PostRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.draft
	s.draft = nil

	if draft == nil {
		return core.PostRecord{}, false
	}
	if s.ttl > 0 && time.Since(s.setAt) > s.ttl {
		return core.PostRecord{}, false
	}
	return *draft, true
}
