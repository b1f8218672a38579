// Package mutwatch applies content-tree change notifications to the mirror
// and uses attribute transitions as a redundant detection path. Both paths
// feed the same record sink as the click path; the store dedups by key.
package mutwatch

import (
	"context"
	"log/slog"
	"time"

	"feedtrack/internal/classify"
	"feedtrack/internal/config"
	"feedtrack/internal/core"
	"feedtrack/internal/extract"
	"feedtrack/internal/page"
)

type Watcher struct {
	Logger    *slog.Logger
	Config    *config.Config
	Extractor *extract.Extractor
}

func (w *Watcher) Init(_ context.Context) error {
	w.Logger = w.Logger.With("component", "mutwatch.Watcher")
	return nil
}

func (w *Watcher) HandleMutation(ctx context.Context, doc *page.Document, m *core.Mutation, sink core.Sink) {
	if m == nil {
		return
	}

	switch m.Kind {
	case core.MutationChildList:
		w.handleChildList(doc, m)
	case core.MutationAttribute:
		w.handleAttribute(ctx, doc, m, sink)
	}
}

// handleChildList patches the added subtree into the mirror so later lookups
// see it without waiting for the next full snapshot. Confirmation controls
// rendered into overlay layers arrive this way; their clicks come through the
// normal click path once the mirror knows them.
func (w *Watcher) handleChildList(doc *page.Document, m *core.Mutation) {
	doc.Append(m.Parent, m.HTML)

	if doc.Find(classify.SelRepostConfirm) != nil || doc.Find(classify.SelUndoRepostConfirm) != nil {
		w.Logger.Debug("confirmation control rendered", "parent", m.Parent)
	}
}

// handleAttribute keeps the mirror's toggled state current and treats an
// unpressed-to-pressed transition on a like/bookmark control as an
// interaction, independent of whether the click listener already did.
func (w *Watcher) handleAttribute(ctx context.Context, doc *page.Document, m *core.Mutation, sink core.Sink) {
	doc.SetAttr(m.Node, m.Attr, m.New)

	if m.Attr != classify.PressedAttr {
		return
	}
	if m.Old == "true" || m.New != "true" {
		return
	}

	button := doc.ByNode(m.Node)
	if button == nil {
		return
	}

	var kind core.InteractionKind
	switch {
	case button.Is(classify.SelLike):
		kind = core.KindLike
	case button.Is(classify.SelBookmark):
		kind = core.KindBookmark
	default:
		return
	}

	w.Logger.Debug("pressed transition detected", "kind", kind, "node", m.Node)

	go func() {
		select {
		case <-time.After(w.Config.ClickSettle):
		case <-ctx.Done():
			return
		}

		record, err := w.Extractor.Extract(doc, button, kind)
		if err != nil {
			w.Logger.Debug("no post container for pressed transition", "node", m.Node)
			return
		}

		sink(ctx, record)
	}()
}
