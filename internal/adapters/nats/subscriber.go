package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own connection. durable names
// the JetStream consumer, so restarts resume where they left off.
func NewSubscriber(url, durable string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if durable == "" {
		durable = "mirror-sync"
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

func (s *Subscriber) SubscribeDocumentEvents(ctx context.Context, handler func(ctx context.Context, event *domain.DocumentEvent) error) error {
	sub, err := s.js.Subscribe(DocumentSubjects, func(msg *nats.Msg) {
		var event domain.DocumentEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			// redelivery will not fix a bad payload
			slog.WarnContext(ctx, "dropping undecodable document event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &event); err != nil {
			slog.WarnContext(ctx, "document event handler failed", "id", event.DocumentID, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
