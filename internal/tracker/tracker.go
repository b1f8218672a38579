// Package tracker runs the detection engine: one consumer loop over the host
// event stream, dispatching clicks, mutations and network calls into the
// classifier and watchers, and funneling every detection path into a single
// record sink.
package tracker

import (
	"context"
	"log/slog"
	"time"

	"feedtrack/internal/classify"
	"feedtrack/internal/config"
	"feedtrack/internal/core"
	"feedtrack/internal/enrich"
	"feedtrack/internal/extract"
	"feedtrack/internal/mutwatch"
	"feedtrack/internal/nats"
	"feedtrack/internal/netwatch"
	"feedtrack/internal/page"
	"feedtrack/internal/pending"
	"feedtrack/internal/records"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zhulik/pips"
	"github.com/zhulik/pips/apply"
)

var (
	eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedtrack_events_processed_total",
		Help: "The total number of processed host events",
	}, []string{"type"})

	confirmationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedtrack_confirmations_dropped_total",
		Help: "Repost confirmations arriving with an empty pending slot",
	})
)

var notifications = map[core.InteractionKind]string{
	core.KindLike:       "Post liked and saved!",
	core.KindBookmark:   "Post bookmarked and saved!",
	core.KindRepost:     "Post reposted and saved!",
	core.KindUndoRepost: "Post unreposted and saved!",
	core.KindComment:    "Post commented and saved!",
}

type Tracker struct {
	Logger *slog.Logger
	Config *config.Config
	NATS   *nats.NATS

	Extractor  *extract.Extractor
	Classifier *classify.Classifier
	Slot       *pending.Slot
	Net        *netwatch.Watcher
	Mut        *mutwatch.Watcher
	Store      *records.Store
	Enricher   *enrich.Enricher

	// source and notifier default to NATS; tests swap them.
	source   core.HostEventSource
	notifier core.Notifier

	doc *page.Document
}

func (t *Tracker) Init(_ context.Context) error {
	t.Logger = t.Logger.With("component", "tracker.Tracker")

	if t.source == nil && t.NATS != nil {
		t.source = t.NATS
	}
	if t.notifier == nil && t.NATS != nil {
		t.notifier = t.NATS
	}

	doc, err := page.Parse("<html><body></body></html>")
	if err != nil {
		return err
	}
	t.doc = doc

	return nil
}

func (t *Tracker) Run(ctx context.Context) error {
	ch, err := t.source.Consume(ctx)
	if err != nil {
		return err
	}

	t.Logger.Info("tracking host events")

	return pips.New[*core.HostEvent, any]().
		Then(apply.Each(countEvent)).
		Then(apply.Each(t.dispatch)).
		Run(ctx, ch).
		Wait(ctx)
}

func countEvent(_ context.Context, event *core.HostEvent) error {
	eventsProcessed.WithLabelValues(string(event.Type)).Inc()
	return nil
}

func (t *Tracker) dispatch(ctx context.Context, event *core.HostEvent) error {
	switch event.Type {
	case core.EventSnapshot:
		if event.Snapshot == nil {
			return nil
		}
		if err := t.doc.Replace(event.Snapshot.HTML); err != nil {
			t.Logger.Error("failed to apply snapshot", "error", err)
		}

	case core.EventClick:
		if event.Click != nil {
			t.handleClick(ctx, event.Click)
		}

	case core.EventMutation:
		t.Mut.HandleMutation(ctx, t.doc, event.Mutation, t.record)

	case core.EventNetwork:
		t.Net.HandleCall(ctx, t.doc, event.Network, t.record)
	}

	return nil
}

func (t *Tracker) handleClick(ctx context.Context, click *core.Click) {
	target := t.doc.ByNode(click.Node)
	action := t.Classifier.Classify(target)

	switch action.Type {
	case classify.BeginRepost:
		// Capture the draft now: the confirmation surface usually cannot be
		// traced back to the post container.
		draft, err := t.Extractor.Extract(t.doc, action.Anchor, core.KindRepost)
		if err != nil {
			t.Logger.Debug("no post container for repost initiation", "node", click.Node)
			return
		}
		t.Slot.Begin(draft)

	case classify.ConfirmRepost:
		t.confirm(ctx, core.KindRepost)

	case classify.ConfirmUndoRepost:
		t.confirm(ctx, core.KindUndoRepost)

	case classify.RecordNow:
		t.recordAfterSettle(ctx, action)

	case classify.Ignore:
	}
}

// confirm consumes the pending draft at the confirmation click itself, before
// any suspension: a later initiation must start a new flow, not substitute
// its draft into this one. The settle delay only defers recording. An empty
// slot means there is no subject to attribute the confirmation to, so it is
// dropped: silence over a bogus record.
func (t *Tracker) confirm(ctx context.Context, kind core.InteractionKind) {
	draft, ok := t.Slot.Consume()
	if !ok {
		confirmationsDropped.Inc()
		t.Logger.Warn("confirmation without pending draft", "kind", kind)
		return
	}

	draft.Kind = kind

	go func() {
		select {
		case <-time.After(t.Config.ConfirmSettle):
		case <-ctx.Done():
			return
		}

		t.record(ctx, draft)
	}()
}

// recordAfterSettle waits for the toggle to commit before extracting.
func (t *Tracker) recordAfterSettle(ctx context.Context, action classify.Action) {
	go func() {
		select {
		case <-time.After(t.Config.ClickSettle):
		case <-ctx.Done():
			return
		}

		record, err := t.Extractor.Extract(t.doc, action.Anchor, action.Kind)
		if err != nil {
			t.Logger.Debug("no post container for interaction", "kind", action.Kind)
			return
		}

		t.record(ctx, record)
	}()
}

// record is the single sink all detection paths feed. Storage failures are
// logged, never retried; duplicates are absorbed by the store's key.
func (t *Tracker) record(ctx context.Context, record core.PostRecord) {
	if t.Enricher != nil {
		if err := t.Enricher.Enrich(ctx, &record); err != nil {
			t.Logger.Debug("enrichment failed", "id", record.ID, "error", err)
		}
	}

	if err := t.Store.Upsert(ctx, t.Store.Interacted, record); err != nil {
		t.Logger.Error("failed to store record", "key", record.Key(), "error", err)
		return
	}

	if record.Kind == core.KindLike {
		if err := t.Store.Upsert(ctx, t.Store.Liked, record); err != nil {
			t.Logger.Error("failed to store liked record", "id", record.ID, "error", err)
		}
	}

	t.Logger.Info("recorded interaction", "key", record.Key(), "author", record.Handle)

	if t.notifier != nil {
		if err := t.notifier.Show(ctx, notifications[record.Kind]); err != nil {
			t.Logger.Debug("notification failed", "error", err)
		}
	}
}
