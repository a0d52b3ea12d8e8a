// Package eventbus provides the pub/sub channel between the session
// controller (the single writer) and whoever renders or records session
// state. Subscribers get immutable snapshots; none of them can reach the
// live session record.
package eventbus

import (
	"context"

	"github.com/pilotwire/pilotwire/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
