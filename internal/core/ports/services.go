package ports

import (
	"context"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

// EventPublisher publishes document events to a message broker.
type EventPublisher interface {
	PublishDocumentEvent(ctx context.Context, event *domain.DocumentEvent) error
}

// EventSubscriber subscribes to document events from a message broker.
type EventSubscriber interface {
	SubscribeDocumentEvents(ctx context.Context, handler func(ctx context.Context, event *domain.DocumentEvent) error) error
}

// Locker serialises writers of a single corpus document.
type Locker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	// The returned function releases it.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
