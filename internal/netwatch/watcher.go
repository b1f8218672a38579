// Package netwatch recognizes repost calls among the host's outbound network
// traffic. It is a secondary detection path: the UI click path may already
// have produced the same record, and the store's dedup key absorbs that.
package netwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"feedtrack/internal/config"
	"feedtrack/internal/core"
	"feedtrack/internal/extract"
	"feedtrack/internal/page"

	"github.com/Jeffail/gabs"
)

var ErrBadRequestBody = errors.New("cannot parse request body")

const (
	createPattern = "CreateRetweet"
	deletePattern = "DeleteRetweet"
)

// Request bodies name the subject either flat or under a "variables" object.
var subjectPaths = []string{"variables.tweet_id", "tweet_id"}

type Watcher struct {
	Logger    *slog.Logger
	Config    *config.Config
	Extractor *extract.Extractor
}

func (w *Watcher) Init(_ context.Context) error {
	w.Logger = w.Logger.With("component", "netwatch.Watcher")
	return nil
}

// HandleCall inspects one completed call. A successful repost-create resolves
// the subject element once the UI has settled and extracts a Repost record
// into sink. Repost-delete is a no-op: an undo via the network path is not
// recorded. Nothing here is fatal; unusable calls are skipped.
func (w *Watcher) HandleCall(ctx context.Context, doc *page.Document, call *core.NetworkCall, sink core.Sink) {
	if call == nil || !call.StatusOK {
		return
	}

	switch {
	case strings.Contains(call.URL, createPattern):
		w.handleCreate(ctx, doc, call, sink)
	case strings.Contains(call.URL, deletePattern):
		w.Logger.Debug("repost delete call ignored", "url", call.URL)
	}
}

func (w *Watcher) handleCreate(ctx context.Context, doc *page.Document, call *core.NetworkCall, sink core.Sink) {
	id, err := subjectID(call.RequestBody)
	if err != nil {
		w.Logger.Debug("skipping repost call", "error", err)
		return
	}

	w.Logger.Debug("repost create call detected", "id", id)

	// Give the surface time to re-render before resolving the subject.
	go func() {
		select {
		case <-time.After(w.Config.NetworkSettle):
		case <-ctx.Done():
			return
		}

		record, err := w.Extractor.ExtractByID(doc, id, core.KindRepost)
		if err != nil {
			w.Logger.Debug("subject not found after settle", "id", id)
			return
		}

		sink(ctx, record)
	}()
}

// subjectID parses the post id out of a repost-create request body.
func subjectID(body string) (string, error) {
	container, err := gabs.ParseJSON([]byte(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadRequestBody, err)
	}

	for _, path := range subjectPaths {
		if !container.ExistsP(path) {
			continue
		}

		switch v := container.Path(path).Data().(type) {
		case string:
			return v, nil
		case float64:
			return fmt.Sprintf("%.0f", v), nil
		}
	}

	return "", fmt.Errorf("%w: no subject id", ErrBadRequestBody)
}
