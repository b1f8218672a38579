package mutwatch_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"feedtrack/internal/config"
	"feedtrack/internal/core"
	"feedtrack/internal/extract"
	"feedtrack/internal/mutwatch"
	"feedtrack/internal/page"

	"github.com/stretchr/testify/require"
)

const post = `
<div data-ft-node="root">
	<article data-testid="tweet">
		<div data-testid="tweetText">Hello world</div>
		<a href="/jane/status/12345"></a>
		<button data-testid="like" data-ft-node="like-btn" aria-pressed="false"></button>
		<button data-testid="bookmark" data-ft-node="bm-btn" aria-pressed="false"></button>
		<button data-testid="share" data-ft-node="share-btn" aria-pressed="false"></button>
	</article>
</div>`

type collector struct {
	mu      sync.Mutex
	records []core.PostRecord
}

func (c *collector) sink(_ context.Context, record core.PostRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, record)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func (c *collector) first() core.PostRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records[0]
}

func newWatcher(t *testing.T) *mutwatch.Watcher {
	t.Helper()

	e := &extract.Extractor{Logger: slog.Default()}
	require.NoError(t, e.Init(t.Context()))

	w := &mutwatch.Watcher{
		Logger:    slog.Default(),
		Config:    &config.Config{ClickSettle: time.Millisecond},
		Extractor: e,
	}
	require.NoError(t, w.Init(t.Context()))
	return w
}

func parse(t *testing.T, html string) *page.Document {
	t.Helper()

	doc, err := page.Parse(html)
	require.NoError(t, err)
	return doc
}

func TestChildListPatchesMirror(t *testing.T) {
	t.Parallel()

	w := newWatcher(t)
	doc := parse(t, post)
	c := &collector{}

	w.HandleMutation(t.Context(), doc, &core.Mutation{
		Kind:   core.MutationChildList,
		Parent: "root",
		HTML:   `<div data-testid="retweetConfirm" data-ft-node="confirm">Repost</div>`,
	}, c.sink)

	require.NotNil(t, doc.ByNode("confirm"))
	require.Zero(t, c.len())
}

func TestAttributeTransitionRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		node string
		kind core.InteractionKind
	}{
		{"like pressed", "like-btn", core.KindLike},
		{"bookmark pressed", "bm-btn", core.KindBookmark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := newWatcher(t)
			doc := parse(t, post)
			c := &collector{}

			w.HandleMutation(t.Context(), doc, &core.Mutation{
				Kind: core.MutationAttribute,
				Node: tt.node,
				Attr: "aria-pressed",
				Old:  "false",
				New:  "true",
			}, c.sink)

			require.Eventually(t, func() bool { return c.len() == 1 }, time.Second, 5*time.Millisecond)
			require.Equal(t, tt.kind, c.first().Kind)
			require.Equal(t, "12345", c.first().ID)

			// the mirror picked up the new state too
			require.Equal(t, "true", doc.ByNode(tt.node).Attr("aria-pressed"))
		})
	}
}

func TestAttributeNoRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutation *core.Mutation
	}{
		{"already pressed", &core.Mutation{
			Kind: core.MutationAttribute, Node: "like-btn",
			Attr: "aria-pressed", Old: "true", New: "true",
		}},
		{"unpressing", &core.Mutation{
			Kind: core.MutationAttribute, Node: "like-btn",
			Attr: "aria-pressed", Old: "true", New: "false",
		}},
		{"unrelated attribute", &core.Mutation{
			Kind: core.MutationAttribute, Node: "like-btn",
			Attr: "class", Old: "a", New: "b",
		}},
		{"unrelated control", &core.Mutation{
			Kind: core.MutationAttribute, Node: "share-btn",
			Attr: "aria-pressed", Old: "false", New: "true",
		}},
		{"unknown node", &core.Mutation{
			Kind: core.MutationAttribute, Node: "ghost",
			Attr: "aria-pressed", Old: "false", New: "true",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := newWatcher(t)
			doc := parse(t, post)
			c := &collector{}

			w.HandleMutation(t.Context(), doc, tt.mutation, c.sink)

			time.Sleep(20 * time.Millisecond)
			require.Zero(t, c.len())
		})
	}
}

func TestNilMutation(t *testing.T) {
	t.Parallel()

	w := newWatcher(t)
	doc := parse(t, post)
	c := &collector{}

	w.HandleMutation(t.Context(), doc, nil, c.sink)
	require.Zero(t, c.len())
}
