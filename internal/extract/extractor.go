// Package extract turns a post container in the mirrored page into a
// normalized PostRecord. Selectors follow the observed UI contract and are
// expected to break when the surface is redesigned; extraction is best-effort.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"feedtrack/internal/core"
	"feedtrack/internal/page"
)

var ErrNoPostContainer = errors.New("no post container found")

const (
	SelPost   = `article[data-testid="tweet"]`
	SelText   = `[data-testid="tweetText"]`
	SelAuthor = `[data-testid="User-Name"]`
	SelLink   = `a[href*="/status/"]`
	SelTime   = `time`
	SelModal  = `[role="dialog"]`
)

var statusRe = regexp.MustCompile(`/status/(\d+)`)

type Extractor struct {
	Logger *slog.Logger
}

func (e *Extractor) Init(_ context.Context) error {
	e.Logger = e.Logger.With("component", "extract.Extractor")
	return nil
}

// Extract locates the smallest post container enclosing anchor and builds a
// record of kind from it. Lookup order: ancestor of anchor, then the
// enclosing modal surface, then the first container anywhere on the page.
// Only a page with no container at all fails.
func (e *Extractor) Extract(doc *page.Document, anchor *page.Element, kind core.InteractionKind) (core.PostRecord, error) {
	var article *page.Element

	if anchor != nil {
		article = anchor.Closest(SelPost)

		if article == nil {
			if modal := anchor.Closest(SelModal); modal != nil {
				article = modal.Find(SelPost)
			}
		}
	}

	if article == nil {
		article = doc.Find(SelPost)
	}

	if article == nil {
		return core.PostRecord{}, ErrNoPostContainer
	}

	return e.fromContainer(article, kind), nil
}

// ExtractByID resolves the container by a known post id instead of an anchor,
// the way the network path does once the UI has settled. The substring
// selector also matches ids this one is a prefix of, so each candidate link's
// parsed id is checked for an exact match.
func (e *Extractor) ExtractByID(doc *page.Document, id string, kind core.InteractionKind) (core.PostRecord, error) {
	for _, link := range doc.FindAll(fmt.Sprintf(`%s a[href*="/status/%s"]`, SelPost, id)) {
		m := statusRe.FindStringSubmatch(link.Attr("href"))
		if m == nil || m[1] != id {
			continue
		}

		if article := link.Closest(SelPost); article != nil {
			return e.fromContainer(article, kind), nil
		}
	}

	return core.PostRecord{}, ErrNoPostContainer
}

func (e *Extractor) fromContainer(article *page.Element, kind core.InteractionKind) core.PostRecord {
	now := time.Now().UTC().Format(time.RFC3339)

	rec := core.PostRecord{
		Kind:         kind,
		Timestamp:    now,
		InteractedAt: now,
	}

	if text := article.Find(SelText); text != nil {
		rec.Text = text.Text()
	}

	// Name and handle are adjacent lines of a single author block.
	if author := article.Find(SelAuthor); author != nil {
		lines := strings.Split(author.InnerText(), "\n")
		rec.Author = lines[0]
		if len(lines) > 1 {
			rec.Handle = strings.TrimPrefix(lines[1], "@")
		}
	}

	if link := article.Find(SelLink); link != nil {
		rec.URL = link.Attr("href")
	}

	if ts := article.Find(SelTime); ts != nil {
		if dt := ts.Attr("datetime"); dt != "" {
			rec.Timestamp = dt
		}
	}

	// A record without an id is still storable, just low quality.
	if m := statusRe.FindStringSubmatch(rec.URL); m != nil {
		rec.ID = m[1]
	}

	return rec
}
