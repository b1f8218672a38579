package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"feedtrack/internal/core"

	libnats "github.com/nats-io/nats.go"
	"github.com/zhulik/pips"
)

const fetchBatchSize = 100

// PublishEvent forwards one host event into the stream. The message ID makes
// redelivery from a reconnecting bridge idempotent.
func (n *NATS) PublishEvent(ctx context.Context, event *core.HostEvent) error {
	bytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &libnats.Msg{
		Subject: SubjectEvents,
		Data:    bytes,
		Header: libnats.Header{
			libnats.MsgIdHdr: []string{messageID(event)},
		},
	}

	_, err = n.JS.PublishMsg(ctx, msg)
	return err
}

// Consume implements core.HostEventSource on the durable tracker consumer.
// Messages are acked on receipt: a dropped detection is a missed record, an
// accepted trade-off of best-effort observation.
func (n *NATS) Consume(ctx context.Context) (<-chan pips.D[*core.HostEvent], error) {
	cons, err := n.JS.Consumer(ctx, StreamName, ConsumerName)
	if err != nil {
		return nil, err
	}

	ch := make(chan pips.D[*core.HostEvent])

	go func() {
		defer close(ch)

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := cons.Fetch(fetchBatchSize)
			if err != nil {
				ch <- pips.ErrD[*core.HostEvent](err)
				return
			}

			for msg := range batch.Messages() {
				msg.Ack() //nolint:errcheck

				event := &core.HostEvent{}
				if err := json.Unmarshal(msg.Data(), event); err != nil {
					n.Logger.Error("failed to unmarshal host event", "error", err)
					continue
				}

				select {
				case ch <- pips.NewD(event):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// Show implements core.Notifier: the page-side instrumentation subscribes to
// the notify subject and renders the message as a toast.
func (n *NATS) Show(ctx context.Context, message string) error {
	_, err := n.JS.Publish(ctx, SubjectNotify, []byte(message))
	return err
}

func messageID(event *core.HostEvent) string {
	return fmt.Sprintf("%s-%d-%d", event.Type, event.Seq, event.At.UnixNano())
}
