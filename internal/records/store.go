// Package records persists interaction records into named, capacity-bounded
// collections. Upserts are keyed full-value replacements: a racing writer can
// lose an update, never corrupt one.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"feedtrack/internal/config"
	"feedtrack/internal/core"
	"feedtrack/internal/nats"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
)

var (
	recordsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedtrack_records_stored_total",
		Help: "The total number of records upserted, per collection and kind",
	}, []string{"collection", "kind"})
)

// Collection names a persisted record list. KeyByKind picks the dedup key:
// (id, kind) for the interaction log, id alone for the liked set.
type Collection struct {
	Name      string
	Cap       int
	KeyByKind bool
}

type Store struct {
	Logger *slog.Logger
	Config *config.Config
	NATS   *nats.NATS

	// kv defaults to the NATS bucket; New injects an alternative.
	kv core.KeyValueStore

	Liked      Collection
	Interacted Collection
}

// New builds a store over an explicit key-value backend, for callers outside
// the pal container (one-shot commands, tests).
func New(cfg *config.Config, kv core.KeyValueStore) *Store {
	s := &Store{Logger: slog.Default(), Config: cfg, kv: kv}
	s.Init(context.Background()) //nolint:errcheck
	return s
}

func (s *Store) Init(_ context.Context) error {
	s.Logger = s.Logger.With("component", "records.Store")

	if s.kv == nil && s.NATS != nil {
		s.kv = s.NATS
	}

	s.Liked = Collection{Name: "likedPosts", Cap: s.Config.LikedCap}
	s.Interacted = Collection{Name: "interactedPosts", Cap: s.Config.InteractedCap, KeyByKind: true}

	return nil
}

// Upsert replaces an existing record with the same key in place, else
// prepends, then truncates to the collection cap from the tail.
func (s *Store) Upsert(ctx context.Context, col Collection, record core.PostRecord) error {
	posts, err := s.load(ctx, col)
	if err != nil {
		return err
	}

	_, i, found := lo.FindIndexOf(posts, func(p core.PostRecord) bool {
		return sameKey(col, p, record)
	})

	if found {
		posts[i] = record
	} else {
		posts = append([]core.PostRecord{record}, posts...)
	}

	if col.Cap > 0 && len(posts) > col.Cap {
		posts = posts[:col.Cap]
	}

	if err := s.save(ctx, col, posts); err != nil {
		return err
	}

	recordsStored.WithLabelValues(col.Name, string(record.Kind)).Inc()
	return nil
}

// List returns the collection newest-first.
func (s *Store) List(ctx context.Context, col Collection) ([]core.PostRecord, error) {
	return s.load(ctx, col)
}

// Search filters by interaction kind (empty matches all) and a case-folded
// substring over text, author and handle.
func (s *Store) Search(ctx context.Context, col Collection, kind core.InteractionKind, query string) ([]core.PostRecord, error) {
	posts, err := s.load(ctx, col)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))

	return lo.Filter(posts, func(p core.PostRecord, _ int) bool {
		if kind != "" && p.Kind != kind {
			return false
		}
		if query == "" {
			return true
		}
		return strings.Contains(strings.ToLower(p.Text), query) ||
			strings.Contains(strings.ToLower(p.Author), query) ||
			strings.Contains(strings.ToLower(p.Handle), query)
	}), nil
}

func (s *Store) DeleteRecord(ctx context.Context, col Collection, id string, kind core.InteractionKind) error {
	posts, err := s.load(ctx, col)
	if err != nil {
		return err
	}

	posts = lo.Reject(posts, func(p core.PostRecord, _ int) bool {
		return sameKey(col, p, core.PostRecord{ID: id, Kind: kind})
	})

	return s.save(ctx, col, posts)
}

func (s *Store) Clear(ctx context.Context, col Collection) error {
	return s.save(ctx, col, []core.PostRecord{})
}

func (s *Store) load(ctx context.Context, col Collection) ([]core.PostRecord, error) {
	bytes, err := s.kv.Get(ctx, col.Name)
	if err != nil {
		if errors.Is(err, core.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var posts []core.PostRecord
	if err := json.Unmarshal(bytes, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Store) save(ctx context.Context, col Collection, posts []core.PostRecord) error {
	bytes, err := json.Marshal(posts)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, col.Name, bytes)
}

func sameKey(col Collection, a, b core.PostRecord) bool {
	if col.KeyByKind {
		return a.Key() == b.Key()
	}
	return a.ID == b.ID
}
