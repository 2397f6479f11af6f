// Package notify forwards bus events to NATS JetStream as JSON messages.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/partsd/internal/events"
	"git.home.luguber.info/inful/partsd/internal/logfields"
)

// Sink receives encoded messages.
type Sink interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Message is the JSON envelope published for every event.
type Message struct {
	Event string       `json:"event"`
	Data  events.Event `json:"data"`
	Sent  time.Time    `json:"sent"`
}

// Notifier subscribes to every bus event and publishes it to "<subject>.<event>".
type Notifier struct {
	sink    Sink
	subject string
	timeout time.Duration
	buffer  int
	dropped atomic.Uint64
}

func New(sink Sink, subject string) *Notifier {
	return &Notifier{sink: sink, subject: subject, timeout: 5 * time.Second, buffer: 64}
}

// Dropped returns the number of events discarded because the sink fell behind.
func (n *Notifier) Dropped() uint64 { return n.dropped.Load() }

// Run forwards events until ctx is done or the bus closes. A slow sink never
// holds up publishers: events that do not fit the buffer are dropped.
func (n *Notifier) Run(ctx context.Context, bus *events.Bus) {
	ch, unsubscribe := events.SubscribeLossy(bus, n.buffer, func(evt events.Event) {
		total := n.dropped.Add(1)
		slog.Warn("Notification dropped, NATS is falling behind",
			logfields.Event(evt.Name()), slog.Uint64("dropped_total", total))
	})
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := n.Forward(ctx, evt); err != nil {
				slog.Warn("Failed to publish event to NATS", logfields.Event(evt.Name()), logfields.Error(err))
			}
		}
	}
}

// Forward publishes a single event.
func (n *Notifier) Forward(ctx context.Context, evt events.Event) error {
	data, err := json.Marshal(Message{Event: evt.Name(), Data: evt, Sent: time.Now()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.sink.Publish(ctx, n.subject+"."+evt.Name(), data)
}
