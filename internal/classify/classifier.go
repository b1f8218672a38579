// Package classify decides what a user-originated click means. Clicks are
// observed before the page's own handlers run, so toggled state read here is
// the pre-click state.
package classify

import (
	"context"
	"log/slog"

	"feedtrack/internal/core"
	"feedtrack/internal/page"
)

const (
	SelRepostConfirm     = `[data-testid="retweetConfirm"]`
	SelUndoRepostConfirm = `[data-testid="unretweetConfirm"]`
	SelLike              = `[data-testid="like"]`
	SelBookmark          = `[data-testid="bookmark"]`
	SelRepost            = `[data-testid="retweet"]`
	SelUndoRepost        = `[data-testid="unretweet"]`
	SelReply             = `[data-testid="reply"]`

	PressedAttr = "aria-pressed"
)

type ActionType int

const (
	Ignore ActionType = iota
	ConfirmRepost
	ConfirmUndoRepost
	RecordNow
	BeginRepost
)

// Action is the classifier's verdict. Anchor is the matched control, the
// element extraction should start from; Kind is set for RecordNow only.
type Action struct {
	Type   ActionType
	Kind   core.InteractionKind
	Anchor *page.Element
}

type Classifier struct {
	Logger *slog.Logger
}

func (c *Classifier) Init(_ context.Context) error {
	c.Logger = c.Logger.With("component", "classify.Classifier")
	return nil
}

// Classify maps a clicked element to an action, first match wins.
func (c *Classifier) Classify(target *page.Element) Action {
	if target == nil {
		return Action{Type: Ignore}
	}

	if confirm := target.Closest(SelRepostConfirm); confirm != nil {
		return Action{Type: ConfirmRepost, Anchor: confirm}
	}

	if confirm := target.Closest(SelUndoRepostConfirm); confirm != nil {
		return Action{Type: ConfirmUndoRepost, Anchor: confirm}
	}

	if button := target.Closest(SelLike); button != nil {
		return c.toggled(button, core.KindLike)
	}

	if button := target.Closest(SelBookmark); button != nil {
		return c.toggled(button, core.KindBookmark)
	}

	if button := target.Closest(SelRepost); button != nil {
		return Action{Type: BeginRepost, Anchor: button}
	}

	if button := target.Closest(SelUndoRepost); button != nil {
		return Action{Type: BeginRepost, Anchor: button}
	}

	if button := target.Closest(SelReply); button != nil {
		return Action{Type: RecordNow, Kind: core.KindComment, Anchor: button}
	}

	return Action{Type: Ignore}
}

// toggled inspects the pre-click pressed state: an already-pressed control
// means this click is an undo, which is ignored.
func (c *Classifier) toggled(button *page.Element, kind core.InteractionKind) Action {
	if button.Attr(PressedAttr) == "true" {
		c.Logger.Debug("ignoring undo", "kind", kind)
		return Action{Type: Ignore}
	}
	return Action{Type: RecordNow, Kind: kind, Anchor: button}
}
