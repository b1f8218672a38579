package core

import (
	"fmt"
	"time"
)

type InteractionKind string

const (
	KindLike       InteractionKind = "like"
	KindBookmark   InteractionKind = "bookmark"
	KindRepost     InteractionKind = "repost"
	KindUndoRepost InteractionKind = "unrepost"
	KindComment    InteractionKind = "comment"
)

// PostRecord is one observed interaction with one post. Replaced wholesale on
// update, never merged. Empty string means "unknown" for every field but Kind.
type PostRecord struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author"`
	Handle string `json:"handle"`
	URL    string `json:"url"`

	// Timestamp is the post's own timestamp, ISO-8601.
	Timestamp string `json:"timestamp"`

	Kind InteractionKind `json:"interactionType"`

	// InteractedAt is when the record was produced, ISO-8601.
	InteractedAt string `json:"interactedAt"`
}

// Key is the dedup identity within the interacted collection.
func (r PostRecord) Key() string {
	return fmt.Sprintf("%s/%s", r.ID, r.Kind)
}

type HostEventType string

const (
	EventSnapshot HostEventType = "snapshot"
	EventClick    HostEventType = "click"
	EventMutation HostEventType = "mutation"
	EventNetwork  HostEventType = "network"
)

// HostEvent is one message from the page-side instrumentation. Exactly one of
// the payload fields is set, matching Type.
type HostEvent struct {
	Type HostEventType `json:"type"`
	Seq  int64         `json:"seq"`
	At   time.Time     `json:"at"`

	Snapshot *Snapshot    `json:"snapshot,omitempty"`
	Click    *Click       `json:"click,omitempty"`
	Mutation *Mutation    `json:"mutation,omitempty"`
	Network  *NetworkCall `json:"network,omitempty"`
}

// Snapshot carries the full rendered document.
type Snapshot struct {
	HTML string `json:"html"`
}

// Click references the clicked element by its stable node marker. The mirror
// still holds the pre-click state when it arrives, so toggled attributes read
// from it are pre-click values.
type Click struct {
	Node string `json:"node"`
}

const (
	MutationChildList = "childlist"
	MutationAttribute = "attribute"
)

type Mutation struct {
	Kind string `json:"kind"`

	// childlist: HTML appended under the element marked Parent.
	Parent string `json:"parent,omitempty"`
	HTML   string `json:"html,omitempty"`

	// attribute: Attr on the element marked Node changed Old -> New.
	Node string `json:"node,omitempty"`
	Attr string `json:"attr,omitempty"`
	Old  string `json:"old,omitempty"`
	New  string `json:"new,omitempty"`
}

// NetworkCall is a completed outbound call observed by the interception hook.
// The underlying call's own result is never altered by the host; this is a
// read-only copy.
type NetworkCall struct {
	URL          string `json:"url"`
	Method       string `json:"method"`
	RequestBody  string `json:"requestBody"`
	ResponseBody string `json:"responseBody"`
	StatusOK     bool   `json:"statusOk"`
}
