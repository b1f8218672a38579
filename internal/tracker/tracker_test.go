package tracker

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"feedtrack/internal/classify"
	"feedtrack/internal/config"
	"feedtrack/internal/core"
	"feedtrack/internal/extract"
	"feedtrack/internal/kv"
	"feedtrack/internal/mutwatch"
	"feedtrack/internal/netwatch"
	"feedtrack/internal/pending"
	"feedtrack/internal/records"

	"github.com/stretchr/testify/require"
	"github.com/zhulik/pips"
)

const feed = `
<div data-ft-node="root">
	<article data-testid="tweet">
		<div data-testid="User-Name"><div>Jane Doe</div><div>@jane</div></div>
		<div data-testid="tweetText">Hello world</div>
		<a href="/jane/status/12345"><time datetime="2024-01-01T00:00:00.000Z">Jan 1</time></a>
		<button data-testid="reply" data-ft-node="reply-btn"></button>
		<button data-testid="retweet" data-ft-node="rt-btn"></button>
		<button data-testid="unretweet" data-ft-node="unrt-btn"></button>
		<button data-testid="like" data-ft-node="like-btn" aria-pressed="false"></button>
		<button data-testid="bookmark" data-ft-node="bm-btn" aria-pressed="false"></button>
	</article>
</div>`

const confirmMenu = `<div data-testid="retweetConfirm" data-ft-node="confirm">Repost</div>`
const undoConfirmMenu = `<div data-testid="unretweetConfirm" data-ft-node="undo-confirm">Undo repost</div>`

type chanSource struct {
	ch chan pips.D[*core.HostEvent]
}

func (s *chanSource) Consume(context.Context) (<-chan pips.D[*core.HostEvent], error) {
	return s.ch, nil
}

type memoNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *memoNotifier) Show(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func (n *memoNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return ""
	}
	return n.messages[len(n.messages)-1]
}

type fixture struct {
	tracker  *Tracker
	source   *chanSource
	notifier *memoNotifier
	store    *records.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	return newFixtureWith(t, &config.Config{
		ClickSettle:   time.Millisecond,
		ConfirmSettle: time.Millisecond,
		NetworkSettle: time.Millisecond,
		PendingTTL:    10 * time.Second,
		LikedCap:      1000,
		InteractedCap: 1000,
	})
}

func newFixtureWith(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()

	logger := slog.Default()

	extractor := &extract.Extractor{Logger: logger}
	require.NoError(t, extractor.Init(t.Context()))

	classifier := &classify.Classifier{Logger: logger}
	require.NoError(t, classifier.Init(t.Context()))

	slot := &pending.Slot{Config: cfg}
	require.NoError(t, slot.Init(t.Context()))

	net := &netwatch.Watcher{Logger: logger, Config: cfg, Extractor: extractor}
	require.NoError(t, net.Init(t.Context()))

	mut := &mutwatch.Watcher{Logger: logger, Config: cfg, Extractor: extractor}
	require.NoError(t, mut.Init(t.Context()))

	store := records.New(cfg, kv.NewMemory())

	source := &chanSource{ch: make(chan pips.D[*core.HostEvent], 16)}
	notifier := &memoNotifier{}

	tr := &Tracker{
		Logger:     logger,
		Config:     cfg,
		Extractor:  extractor,
		Classifier: classifier,
		Slot:       slot,
		Net:        net,
		Mut:        mut,
		Store:      store,
		source:     source,
		notifier:   notifier,
	}
	require.NoError(t, tr.Init(t.Context()))

	go tr.Run(t.Context()) //nolint:errcheck

	return &fixture{tracker: tr, source: source, notifier: notifier, store: store}
}

func (f *fixture) send(event *core.HostEvent) {
	f.source.ch <- pips.NewD(event)
}

func (f *fixture) snapshot(html string) {
	f.send(&core.HostEvent{Type: core.EventSnapshot, Snapshot: &core.Snapshot{HTML: html}})
}

func (f *fixture) click(node string) {
	f.send(&core.HostEvent{Type: core.EventClick, Click: &core.Click{Node: node}})
}

func (f *fixture) interacted(t *testing.T) []core.PostRecord {
	t.Helper()

	posts, err := f.store.List(t.Context(), f.store.Interacted)
	require.NoError(t, err)
	return posts
}

func (f *fixture) liked(t *testing.T) []core.PostRecord {
	t.Helper()

	posts, err := f.store.List(t.Context(), f.store.Liked)
	require.NoError(t, err)
	return posts
}

func TestLikeFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.snapshot(feed)
	f.click("like-btn")

	require.Eventually(t, func() bool { return len(f.interacted(t)) == 1 }, time.Second, 5*time.Millisecond)

	rec := f.interacted(t)[0]
	require.Equal(t, core.KindLike, rec.Kind)
	require.Equal(t, "12345", rec.ID)
	require.Equal(t, "Jane Doe", rec.Author)
	require.Equal(t, "jane", rec.Handle)

	// likes land in both collections
	require.Len(t, f.liked(t), 1)
	require.Equal(t, "Post liked and saved!", f.notifier.last())
}

func TestBookmarkFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.snapshot(feed)
	f.click("bm-btn")

	require.Eventually(t, func() bool { return len(f.interacted(t)) == 1 }, time.Second, 5*time.Millisecond)

	require.Equal(t, core.KindBookmark, f.interacted(t)[0].Kind)
	require.Empty(t, f.liked(t))
	require.Equal(t, "Post bookmarked and saved!", f.notifier.last())
}

func TestCommentFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.snapshot(feed)
	f.click("reply-btn")

	require.Eventually(t, func() bool { return len(f.interacted(t)) == 1 }, time.Second, 5*time.Millisecond)

	require.Equal(t, core.KindComment, f.interacted(t)[0].Kind)
	require.Equal(t, "Post commented and saved!", f.notifier.last())
}

func TestRepostFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.snapshot(feed)

	// the repost button opens a menu rendered later as a child-list mutation
	f.click("rt-btn")
	f.send(&core.HostEvent{Type: core.EventMutation, Mutation: &core.Mutation{
		Kind:   core.MutationChildList,
		Parent: "root",
		HTML:   confirmMenu,
	}})
	f.click("confirm")

	require.Eventually(t, func() bool { return len(f.interacted(t)) == 1 }, time.Second, 5*time.Millisecond)

	rec := f.interacted(t)[0]
	require.Equal(t, core.KindRepost, rec.Kind)
	require.Equal(t, "12345", rec.ID)
	require.Empty(t, f.liked(t))
	require.Equal(t, "Post reposted and saved!", f.notifier.last())
}

func TestUndoRepostFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.snapshot(feed)

	f.click("unrt-btn")
	f.send(&core.HostEvent{Type: core.EventMutation, Mutation: &core.Mutation{
		Kind:   core.MutationChildList,
		Parent: "root",
		HTML:   undoConfirmMenu,
	}})
	f.click("undo-confirm")

	require.Eventually(t, func() bool { return len(f.interacted(t)) == 1 }, time.Second, 5*time.Millisecond)

	require.Equal(t, core.KindUndoRepost, f.interacted(t)[0].Kind)
	require.Equal(t, "Post unreposted and saved!", f.notifier.last())
}

func TestLateInitiationKeepsConfirmedDraft(t *testing.T) {
	t.Parallel()

	// A slow confirmation settle must not leave the confirmed draft open to
	// replacement by the next initiation.
	f := newFixtureWith(t, &config.Config{
		ClickSettle:   time.Millisecond,
		ConfirmSettle: 100 * time.Millisecond,
		NetworkSettle: time.Millisecond,
		PendingTTL:    10 * time.Second,
		LikedCap:      1000,
		InteractedCap: 1000,
	})

	twoPosts := `
<div data-ft-node="root">
	<article data-testid="tweet">
		<a href="/jane/status/111"></a>
		<button data-testid="retweet" data-ft-node="rt-111"></button>
	</article>
	<article data-testid="tweet">
		<a href="/bob/status/222"></a>
		<button data-testid="retweet" data-ft-node="rt-222"></button>
	</article>
</div>`
	f.snapshot(twoPosts)

	f.click("rt-111")
	f.send(&core.HostEvent{Type: core.EventMutation, Mutation: &core.Mutation{
		Kind:   core.MutationChildList,
		Parent: "root",
		HTML:   confirmMenu,
	}})
	f.click("confirm")

	// second initiation lands while the first confirmation is still settling
	time.Sleep(20 * time.Millisecond)
	f.click("rt-222")

	require.Eventually(t, func() bool { return len(f.interacted(t)) == 1 }, time.Second, 5*time.Millisecond)

	rec := f.interacted(t)[0]
	require.Equal(t, "111", rec.ID)
	require.Equal(t, core.KindRepost, rec.Kind)

	// the second draft stays pending, never recorded
	time.Sleep(150 * time.Millisecond)
	require.Len(t, f.interacted(t), 1)
}

func TestConfirmationWithoutInitiationDropped(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.snapshot(feed)

	f.send(&core.HostEvent{Type: core.EventMutation, Mutation: &core.Mutation{
		Kind:   core.MutationChildList,
		Parent: "root",
		HTML:   confirmMenu,
	}})
	f.click("confirm")

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, f.interacted(t))
}

func TestPressedLikeIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	// pre-click state says already liked, so this click is an undo
	pressed := `
<article data-testid="tweet">
	<a href="/jane/status/12345"></a>
	<button data-testid="like" data-ft-node="like-btn" aria-pressed="true"></button>
</article>`
	f.snapshot(pressed)
	f.click("like-btn")

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, f.interacted(t))
}

func TestNetworkRepostFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.snapshot(feed)

	f.send(&core.HostEvent{Type: core.EventNetwork, Network: &core.NetworkCall{
		URL:         "https://x.com/i/api/graphql/abc/CreateRetweet",
		Method:      "POST",
		RequestBody: `{"variables":{"tweet_id":"12345"}}`,
		StatusOK:    true,
	}})

	require.Eventually(t, func() bool { return len(f.interacted(t)) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, core.KindRepost, f.interacted(t)[0].Kind)
}

func TestClickAndNetworkDeduplicate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.snapshot(feed)

	// UI flow and network flow both observe the same repost
	f.click("rt-btn")
	f.send(&core.HostEvent{Type: core.EventMutation, Mutation: &core.Mutation{
		Kind:   core.MutationChildList,
		Parent: "root",
		HTML:   confirmMenu,
	}})
	f.click("confirm")
	f.send(&core.HostEvent{Type: core.EventNetwork, Network: &core.NetworkCall{
		URL:         "https://x.com/i/api/graphql/abc/CreateRetweet",
		RequestBody: `{"variables":{"tweet_id":"12345"}}`,
		StatusOK:    true,
	}})

	require.Eventually(t, func() bool { return len(f.interacted(t)) >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	require.Len(t, f.interacted(t), 1)
	require.Equal(t, core.KindRepost, f.interacted(t)[0].Kind)
}

func TestSnapshotReplaces(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.snapshot(feed)
	f.snapshot(`<div data-ft-node="root"></div>`)
	f.click("like-btn")

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, f.interacted(t))
}
